package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title Acesso API
// @version 0.1
// @description Interactive documentation for the Acesso accessibility audit API.
// @contact.name Acesso Maintainers
// @contact.url https://github.com/raysh454/acesso
// @BasePath /
