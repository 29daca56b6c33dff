// Package api serves the estate-tax calculator over HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/model"
	"github.com/theirongolddev/estateplan/internal/taxcalc"
)

// Options configures a Server.
type Options struct {
	// IncludeFederal is the default for TaxRequest.IncludeFederal.
	IncludeFederal bool
	Logger         *slog.Logger
}

// Server handles calculation requests.
type Server struct {
	opts     Options
	log      *slog.Logger
	validate *validator.Validate
	metrics  *metrics
	newID    func() string
}

// New returns a Server ready to be mounted with Handler or run with ListenAndServe.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		opts:     opts,
		log:      logger.With(slog.String("component", "api")),
		validate: newValidator(),
		metrics:  newMetrics(),
		newID:    uuid.NewString,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("jurisdiction", func(fl validator.FieldLevel) bool {
		_, ok := config.LookupJurisdiction(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("plantype", func(fl validator.FieldLevel) bool {
		_, ok := model.ParsePlanType(fl.Field().String())
		return ok
	})
	return v
}

type route struct {
	method  string
	handler func(ctx *fasthttp.RequestCtx) (int, error)
}

// Handler returns the fasthttp request handler for all routes.
func (s *Server) Handler() fasthttp.RequestHandler {
	routes := map[string]route{
		"/healthz":          {fasthttp.MethodGet, s.handleHealth},
		"/v1/jurisdictions": {fasthttp.MethodGet, s.handleJurisdictions},
		"/v1/tax":           {fasthttp.MethodPost, s.handleTax},
		"/v1/savings":       {fasthttp.MethodPost, s.handleSavings},
	}
	metricsHandler := s.metrics.handler()

	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		if path == "/metrics" {
			metricsHandler(ctx)
			return
		}

		r, ok := routes[path]
		if !ok {
			s.finish(ctx, "unmatched", writeError(ctx, fasthttp.StatusNotFound, "no such route"))
			return
		}
		if string(ctx.Method()) != r.method {
			ctx.Response.Header.Set("Allow", r.method)
			s.finish(ctx, path, writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed"))
			return
		}

		start := time.Now()
		status, err := r.handler(ctx)
		if err != nil {
			status = writeError(ctx, status, err.Error())
		}
		s.metrics.duration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		s.finish(ctx, path, status)
	}
}

func (s *Server) finish(ctx *fasthttp.RequestCtx, route string, status int) {
	s.metrics.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	if status >= 500 {
		s.log.Error("request failed",
			slog.String("route", route),
			slog.Int("status", status),
			slog.String("remote", ctx.RemoteAddr().String()))
	}
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &fasthttp.Server{
		Handler:            s.Handler(),
		Name:               "estateplan",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(addr) }()
	s.log.Info("listening", slog.String("addr", addr))

	select {
	case <-ctx.Done():
		return srv.ShutdownWithContext(context.Background())
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	}
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) (int, error) {
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString("ok\n")
	return fasthttp.StatusOK, nil
}

func (s *Server) handleJurisdictions(ctx *fasthttp.RequestCtx) (int, error) {
	all := config.All()
	out := make([]JurisdictionJSON, 0, len(all))
	for _, j := range all {
		out = append(out, toJurisdictionJSON(j))
	}
	return writeJSON(ctx, fasthttp.StatusOK, out)
}

func (s *Server) handleTax(ctx *fasthttp.RequestCtx) (int, error) {
	var req TaxRequest
	if err := s.decode(ctx.PostBody(), &req); err != nil {
		return fasthttp.StatusBadRequest, err
	}

	j, _ := config.LookupJurisdiction(req.Jurisdiction)
	resp := TaxResponse{
		CalculationID: s.newID(),
		Jurisdiction:  toJurisdictionJSON(j),
		Estate:        req.Estate,
		Tax:           cents(taxcalc.ComputeTax(req.Estate, j)),
		MarginalRate:  taxcalc.MarginalRate(req.Estate, j),
		EffectiveRate: taxcalc.EffectiveRate(req.Estate, j),
		Advisories:    j.Advisories(),
	}

	includeFederal := s.opts.IncludeFederal
	if req.IncludeFederal != nil {
		includeFederal = *req.IncludeFederal
	}
	if includeFederal && j.Key != config.FederalKey {
		resp.Combined = toCombinedJSON(taxcalc.EstimateCombined(req.Estate, j, config.Federal()))
	}

	return writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleSavings(ctx *fasthttp.RequestCtx) (int, error) {
	var req SavingsRequest
	if err := s.decode(ctx.PostBody(), &req); err != nil {
		return fasthttp.StatusBadRequest, err
	}

	j, _ := config.LookupJurisdiction(req.Jurisdiction)
	plan, _ := model.ParsePlanType(req.PlanType)
	trust := model.TrustValues{QTIP: req.QTIP}

	resp := SavingsResponse{
		CalculationID: s.newID(),
		Jurisdiction:  j.Key,
		Savings:       toSavingsJSON(taxcalc.EstimateMarriedPlanSavings(req.Total, req.Debts, j, plan, trust)),
		Funding:       toFundingJSON(taxcalc.SplitFunding(req.Total, req.Debts, j, plan, trust)),
	}
	return writeJSON(ctx, fasthttp.StatusOK, resp)
}

// decode reads a strict JSON body into v and validates it.
func (s *Server) decode(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := s.validate.Struct(v); err != nil {
		return describeValidation(err)
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "jurisdiction":
			msgs = append(msgs, fmt.Sprintf("unknown jurisdiction %q", fe.Value()))
		case "plantype":
			msgs = append(msgs, fmt.Sprintf("unknown plan type %q (want Individual, AB, or ABC)", fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return fasthttp.StatusInternalServerError, fmt.Errorf("encoding response: %w", err)
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(data)
	return status, nil
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) int {
	_, _ = writeJSON(ctx, status, ErrorResponse{Status: status, Message: message})
	return status
}
