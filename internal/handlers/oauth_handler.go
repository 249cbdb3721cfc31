package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-authgate/authcore/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// Session keys holding an in-flight OAuth login
const (
	sessionOAuthState    = "oauth_state"
	sessionOAuthVerifier = "oauth_verifier"
	sessionOAuthProvider = "oauth_provider"
)

// OAuthHandler handles OAuth authentication
type OAuthHandler struct {
	oauthService *services.OAuthService
}

func NewOAuthHandler(oauthService *services.OAuthService) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService}
}

// LoginWithProvider redirects user to OAuth provider
func (h *OAuthHandler) LoginWithProvider(c *gin.Context) {
	provider := c.Param("provider")

	authURL, state, verifier, err := h.oauthService.Begin(provider)
	if err != nil {
		if errors.Is(err, services.ErrUnknownProvider) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Unknown provider"})
			return
		}
		log.Printf("[OAuth] Failed to start %s login: %v", provider, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to initiate OAuth login"})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionOAuthState, state)
	session.Set(sessionOAuthVerifier, verifier)
	session.Set(sessionOAuthProvider, provider)
	if err := session.Save(); err != nil {
		log.Printf("[OAuth] Failed to save session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to initiate OAuth login"})
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// OAuthCallback completes the login the provider redirected back from and
// returns the provider's identity claims together with its token.
func (h *OAuthHandler) OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")
	if !h.oauthService.Supports(provider) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Unknown provider"})
		return
	}

	session := sessions.Default(c)
	savedState, _ := session.Get(sessionOAuthState).(string)
	savedVerifier, _ := session.Get(sessionOAuthVerifier).(string)
	savedProvider, _ := session.Get(sessionOAuthProvider).(string)

	// The pending login is single-use whatever the outcome
	session.Delete(sessionOAuthState)
	session.Delete(sessionOAuthVerifier)
	session.Delete(sessionOAuthProvider)
	if err := session.Save(); err != nil {
		log.Printf("[OAuth] Failed to clear session: %v", err)
	}

	if savedState == "" || c.Query("state") != savedState || provider != savedProvider {
		log.Printf("[OAuth] %s callback rejected: state mismatch", provider)
		c.JSON(http.StatusBadRequest, gin.H{"detail": "OAuth login failed"})
		return
	}

	if reason := c.Query("error"); reason != "" {
		log.Printf("[OAuth] %s denied authorization: %s", provider, reason)
		c.JSON(http.StatusBadRequest, gin.H{"detail": "OAuth login failed"})
		return
	}

	identity, tok, err := h.oauthService.Complete(
		c.Request.Context(),
		provider,
		c.Query("code"),
		savedVerifier,
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "OAuth login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  identity.Claims,
		"token": tokenResponse(tok),
	})
}

// tokenResponse renders the provider token including the id_token when the
// provider issued one
func tokenResponse(tok *oauth2.Token) gin.H {
	out := gin.H{
		"access_token": tok.AccessToken,
		"token_type":   tok.Type(),
	}
	if tok.RefreshToken != "" {
		out["refresh_token"] = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		out["expires_at"] = tok.Expiry.Unix()
	}
	if idToken, ok := tok.Extra("id_token").(string); ok && idToken != "" {
		out["id_token"] = idToken
	}
	return out
}
