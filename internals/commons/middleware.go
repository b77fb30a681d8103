package commons

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func (s *Server) LoggingMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			duration := time.Since(start)

			s.Logger.WithFields(logrus.Fields{
				"path":     r.URL.Path,
				"method":   r.Method,
				"ip":       getClientIP(r),
				"duration": duration,
			}).Info("request")
		})
	}
}
