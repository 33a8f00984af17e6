package server

import "github.com/raysh454/acesso/internal/interfaces"

type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	Logger interfaces.Logger
}
