package handler

import "net/http"

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Health is a liveness endpoint. It deliberately checks nothing: a degraded
// backend must not make the scheduler look dead.
func Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "streamgate",
	})
}
