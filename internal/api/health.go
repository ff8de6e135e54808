package api

import "net/http"

// HealthCheck reports server liveness. It is mounted outside the auth
// middleware so load balancers can probe without a token.
func HealthCheck(r *http.Request) (any, error) {
	return struct {
		Message string `json:"message"`
	}{Message: "Server is running correctly!"}, nil
}
