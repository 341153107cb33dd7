package server

import (
	"context"
	"net/http"

	"mixguard/internal/handlers"
	applog "mixguard/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/health", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/health")
	mux.HandleFunc("/products", handlers.Products)
	applog.Debug(context.Background(), "route registered", "path", "/products")
	mux.HandleFunc("/ingredients", handlers.Ingredients)
	applog.Debug(context.Background(), "route registered", "path", "/ingredients")
	mux.HandleFunc("/mix", handlers.Mix)
	applog.Debug(context.Background(), "route registered", "path", "/mix")
	mux.HandleFunc("/compare", handlers.Compare)
	applog.Debug(context.Background(), "route registered", "path", "/compare")
	mux.HandleFunc("/recommendations", handlers.Recommendations)
	applog.Debug(context.Background(), "route registered", "path", "/recommendations")
	mux.HandleFunc("/predict-interactions", handlers.PredictInteractions)
	applog.Debug(context.Background(), "route registered", "path", "/predict-interactions")
	return mux
}
