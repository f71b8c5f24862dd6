package service

import (
	"context"
	"errors"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/router"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/server"
)

type Router interface {
	CalculateRoute(ctx context.Context, checkpoints []datastructure.LatLonWithAltitude, mode router.Mode) (*router.RouteResult, error)
}

type NavigationService struct {
	router Router
}

func NewNavigationService(r Router) *NavigationService {
	return &NavigationService{router: r}
}

// Route returns the route through checkpoints in the travel mode named by mode. A query that
// ends without a route is a server.ErrNotFound or server.ErrTimeout error carrying the result.
func (uc *NavigationService) Route(ctx context.Context, checkpoints []datastructure.LatLonWithAltitude, mode string) (*router.RouteResult, error) {
	m, err := router.ParseMode(mode)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrBadParamInput, "unknown travel mode %q", mode)
	}

	result, err := uc.router.CalculateRoute(ctx, checkpoints, m)
	switch {
	case errors.Is(err, router.ErrTooFewCheckpoints):
		return nil, server.WrapErrorf(err, server.ErrBadParamInput, "a route needs at least two checkpoints")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, server.WrapErrorf(err, server.ErrTimeout, "route query took too long")
	case err != nil:
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}

	switch result.Code {
	case router.NoError:
		return result, nil
	case router.NeedMoreMaps:
		return result, server.NewErrorf(server.ErrNotFound, "sorry!! the location you entered is not covered on my map :(")
	case router.StartPointNotFound:
		return result, server.NewErrorf(server.ErrNotFound, "no road near the start point")
	case router.EndPointNotFound:
		return result, server.NewErrorf(server.ErrNotFound, "no road near a destination point")
	case router.RouteNotFound:
		return result, server.NewErrorf(server.ErrNotFound, "no route between the checkpoints")
	case router.Cancelled:
		return result, server.NewErrorf(server.ErrTimeout, "route query took too long")
	}
	return result, server.NewErrorf(server.ErrInternalServerError, "unexpected result %s", result.Code)
}
