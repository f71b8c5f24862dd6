package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/router"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/server"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/util"
	"golang.org/x/exp/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

type NavigationService interface {
	Route(ctx context.Context, checkpoints []datastructure.LatLonWithAltitude, mode string) (*router.RouteResult, error)
}

type NavigationHandler struct {
	svc      NavigationService
	validate *validator.Validate
	trans    ut.Translator
}

func NavigatorRouter(r *chi.Mux, svc NavigationService) {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	validate := validator.New()
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	handler := &NavigationHandler{svc: svc, validate: validate, trans: trans}

	r.Group(func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Post("/route", handler.Route)
		})
	})
}

// RouteRequest model info
//
//	@Description	request body for a route through checkpoints, in order
type RouteRequest struct {
	Checkpoints []Coord `json:"checkpoints" validate:"required,min=2,max=25,dive"`
	// car, pedestrian or transit. car when empty.
	Mode string `json:"mode" validate:"omitempty,oneof=car pedestrian walk transit"`
}

// Coord model info
//
//	@Description	coordinate of a checkpoint
type Coord struct {
	Lat float64 `json:"lat" validate:"lte=90,gte=-90"`
	Lon float64 `json:"lon" validate:"lte=180,gte=-180"`
}

func (s *RouteRequest) Bind(r *http.Request) error {
	if len(s.Checkpoints) == 0 {
		return errors.New("invalid request")
	}
	return nil
}

type SegmentResponse struct {
	From    Coord   `json:"from"`
	To      Coord   `json:"to"`
	Weight  float64 `json:"weight"`
	Transit bool    `json:"transit,omitempty"`
}

// RouteResponse model info
//
//	@Description	response body of a route
type RouteResponse struct {
	QueryID  string            `json:"query_id"`
	Code     string            `json:"code"`
	Weight   float64           `json:"weight"`
	Distance float64           `json:"distance"`
	Legs     []float64         `json:"legs"`
	Polyline string            `json:"polyline"`
	Segments []SegmentResponse `json:"segments,omitempty"`
}

func RenderRouteResponse(result *router.RouteResult, withSegments bool) *RouteResponse {
	resp := &RouteResponse{
		QueryID:  result.QueryID,
		Code:     result.Code.String(),
		Weight:   util.RoundFloat(result.Weight.Weight, 2),
		Distance: util.RoundFloat(result.Distance(), 2),
		Legs:     make([]float64, 0, len(result.Legs)),
		Polyline: result.Polyline,
	}
	for _, leg := range result.Legs {
		resp.Legs = append(resp.Legs, util.RoundFloat(leg.Weight, 2))
	}
	if !withSegments {
		return resp
	}
	resp.Segments = make([]SegmentResponse, 0, len(result.Segments))
	for _, s := range result.Segments {
		resp.Segments = append(resp.Segments, SegmentResponse{
			From:    Coord{Lat: s.From.Lat, Lon: s.From.Lon},
			To:      Coord{Lat: s.To.Lat, Lon: s.To.Lon},
			Weight:  util.RoundFloat(s.Weight.Weight, 2),
			Transit: s.Transit,
		})
	}
	return resp
}

// Route
//
//	@Summary		route through checkpoints by car, on foot or by public transport
//	@Tags			navigations
//	@Param			body		body	RouteRequest	true	"checkpoints and travel mode"
//	@Param			segments	query	bool			false	"include the route segments"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/route [post]
//	@Success		200	{object}	RouteResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
//	@Failure		504	{object}	ErrResponse
func (h *NavigationHandler) Route(w http.ResponseWriter, r *http.Request) {
	data := &RouteRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err := h.validate.Struct(*data); err != nil {
		render.Render(w, r, ErrValidation(err, translateError(err, h.trans)))
		return
	}

	checkpoints := make([]datastructure.LatLonWithAltitude, 0, len(data.Checkpoints))
	for _, c := range data.Checkpoints {
		checkpoints = append(checkpoints, datastructure.NewLatLon(c.Lat, c.Lon))
	}

	result, err := h.svc.Route(r.Context(), checkpoints, data.Mode)
	if err != nil {
		render.Render(w, r, ErrFromService(err, result))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderRouteResponse(result, r.URL.Query().Get("segments") == "true"))
}

// ErrResponse model info
//
//	@Description	model for error responses
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	Code          string   `json:"code,omitempty"`  // route result code
	ErrorText     string   `json:"error,omitempty"` // application-level error message
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

// ErrFromService maps the kind of a server.Error to its status. Internal errors are logged and
// hidden from the client.
func ErrFromService(err error, result *router.RouteResult) render.Renderer {
	resp := &ErrResponse{Err: err}
	if result != nil {
		resp.Code = result.Code.String()
	}

	var serverErr *server.Error
	msg := "internal server error"
	if errors.As(err, &serverErr) {
		msg = serverErr.Message()
	}

	switch {
	case errors.Is(err, server.ErrBadParamInput):
		resp.HTTPStatusCode, resp.StatusText = http.StatusBadRequest, "Invalid request."
	case errors.Is(err, server.ErrNotFound):
		resp.HTTPStatusCode, resp.StatusText = http.StatusNotFound, "Not found."
	case errors.Is(err, server.ErrTimeout):
		resp.HTTPStatusCode, resp.StatusText = http.StatusGatewayTimeout, "Timeout."
	default:
		slog.Error("route request failed", "error", err)
		resp.HTTPStatusCode, resp.StatusText = http.StatusInternalServerError, "Internal server error."
		msg = "internal server error"
	}
	resp.ErrorText = msg
	return resp
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, fmt.Errorf("%s", e.Translate(trans)))
	}
	return errs
}
