package controllers

import (
	"net/http"

	"github.com/angelmondragon/pantrypal-backend/api/responses"
	"github.com/angelmondragon/pantrypal-backend/api/validators"
	"github.com/angelmondragon/pantrypal-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/pantrypal-backend/pkg/errors"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
)

const meLocation = "/api/v1/auth/me"

// AuthRegister creates an account and signs it straight in. The body carries
// the tokens and the identity pantry the account owns. When the account is
// created but the sign-in fails, the user is still returned with 201 and no
// tokens, so a retry goes through login instead of hitting the email conflict.
func AuthRegister(reg auth.RegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reg == nil || svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := reg.Register(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithUserID(ctx, user.ID.String())
			logg.Info(ctx, "auth.registered")
		}

		w.Header().Set("Location", meLocation)
		session, err := svc.Login(ctx, auth.LoginRequest{Email: user.Email, Password: body.Password})
		if err != nil {
			if logg != nil {
				logg.Warn(ctx, "auth.register_sign_in_failed")
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, auth.SignupResponse{
				LoginResponse: &auth.LoginResponse{User: user},
				Created:       true,
			})
			return
		}

		w.Header().Set(accessTokenHeader, session.AccessToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, auth.SignupResponse{LoginResponse: session, Created: true})
	}
}
