package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRoutes 注册全部 API 路由
func (r *Router) RegisterRoutes(
	auth *AuthHandler,
	residents *ResidentsHandler,
	flats *FlatsHandler,
	payments *PaymentsHandler,
	visitors *VisitorsHandler,
	complaints *ComplaintsHandler,
) {
	r.HandleHandler("/api/v1/auth/", auth)

	r.HandleHandler("/api/v1/residents", residents)
	r.HandleHandler("/api/v1/residents/", residents)

	r.HandleHandler("/api/v1/flats", flats)
	r.HandleHandler("/api/v1/flats/", flats)

	r.HandleHandler("/api/v1/payments", payments)
	r.HandleHandler("/api/v1/payments/", payments)

	r.HandleHandler("/api/v1/visitors", visitors)
	r.HandleHandler("/api/v1/visitors/", visitors)

	r.HandleHandler("/api/v1/complaints", complaints)
	r.HandleHandler("/api/v1/complaints/", complaints)

	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
