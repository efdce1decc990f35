package handler

import (
	"pms-service/internal/leave"
	"pms-service/internal/mailer"
	"pms-service/internal/session"
	"pms-service/internal/token"
	"pms-service/pkg/config"
)

var (
	cfg      *config.Config
	sessions *session.Manager
	issuer   *token.Issuer
	leaves   *leave.Service
	mail     mailer.Mailer
)

// Init wires the handler package with its collaborators. Must be called once
// at startup before any route is served.
func Init(c *config.Config, s *session.Manager, i *token.Issuer, l *leave.Service, m mailer.Mailer) {
	cfg = c
	sessions = s
	issuer = i
	leaves = l
	mail = m
}
