package httpapi

import (
	"net/http"
	"strings"

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

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.Header().Set("Allow", method)
			writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
			return
		}
		h(w, req)
	}
}

// RegisterRoutes 注册全部 API 路由
func (r *Router) RegisterRoutes(
	predict *PredictHandler,
	dashboard *DashboardHandler,
	metrics *HealthMetricsHandler,
	auth *AuthHandler,
) {
	// 服务存活探测
	r.Handle("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"service": "healthtwin-data",
			"status":  "running",
		})
	})

	r.Handle("/predict", methodOnly(http.MethodPost, predict.Predict))

	r.Handle("/dashboard", methodOnly(http.MethodGet, dashboard.Dashboard))
	r.Handle("/records", methodOnly(http.MethodGet, dashboard.Records))
	r.Handle("/alerts", methodOnly(http.MethodGet, dashboard.Alerts))
	r.Handle("/statistics/", methodOnly(http.MethodGet, dashboard.StateStatistics))
	r.Handle("/workers", methodOnly(http.MethodGet, dashboard.Workers))

	r.Handle("/health-metrics", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			metrics.Submit(w, req)
		case http.MethodGet:
			metrics.List(w, req)
		default:
			w.Header().Set("Allow", "GET, POST")
			writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		}
	})
	r.Handle("/health-metrics/stats", methodOnly(http.MethodGet, metrics.Stats))
	r.Handle("/health-metrics/symptom-stats", methodOnly(http.MethodGet, metrics.SymptomStats))
	r.Handle("/health-metrics/export", methodOnly(http.MethodGet, metrics.Export))
	// DELETE /health-metrics/{id}（数字 id 的子路径）
	r.Handle("/health-metrics/", func(w http.ResponseWriter, req *http.Request) {
		suffix := strings.TrimPrefix(req.URL.Path, "/health-metrics/")
		if suffix == "" || strings.Contains(suffix, "/") {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
			return
		}
		if req.Method != http.MethodDelete {
			w.Header().Set("Allow", "DELETE")
			writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
			return
		}
		metrics.Delete(w, req)
	})

	r.Handle("/auth/login", methodOnly(http.MethodPost, auth.Login))
	r.Handle("/auth/verify", methodOnly(http.MethodPost, auth.Verify))
	r.Handle("/auth/logout", methodOnly(http.MethodPost, auth.Logout))
}
