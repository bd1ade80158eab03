package api

import (
	"net/http"
	"strings"

	"github.com/example/ec-cart-offers/internal/api/middleware"
	"github.com/example/ec-cart-offers/internal/auth"
	"github.com/example/ec-cart-offers/internal/logger"
)

func NewRouter(handlers *Handlers, jwtService *auth.JWTService, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	shopper := middleware.ShopperMiddleware(jwtService)
	authed := middleware.AuthMiddleware(jwtService)
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireRole(auth.RoleAdmin)(h))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Cart
	mux.Handle("/cart", shopper(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetCart(w, r)
		case http.MethodDelete:
			handlers.ClearCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	mux.Handle("/cart/items", shopper(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handlers.AddToCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	mux.Handle("/cart/items/", shopper(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			handlers.RemoveFromCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	getCartByID := admin(handlers.GetCartByID)
	mux.HandleFunc("/carts/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || extractPathParam(r.URL.Path, "/carts/") == "" {
			methodNotAllowed(w)
			return
		}
		getCartByID.ServeHTTP(w, r)
	})

	// Offers
	createOffer := admin(handlers.CreateOffer)
	mux.HandleFunc("/offers", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.ListOffers(w, r)
		case http.MethodPost:
			createOffer.ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	redeem := authed(http.HandlerFunc(handlers.RedeemOffer))
	redemptions := authed(http.HandlerFunc(handlers.GetRedemptionCount))
	mux.HandleFunc("/offers/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/redeem") && r.Method == http.MethodPost:
			redeem.ServeHTTP(w, r)
		case strings.HasSuffix(path, "/redemptions") && r.Method == http.MethodGet:
			redemptions.ServeHTTP(w, r)
		case r.Method == http.MethodGet && !strings.Contains(offerPath(path), "/"):
			handlers.GetOffer(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	return middleware.RequestLogger(log)(mux)
}

func methodNotAllowed(w http.ResponseWriter) {
	respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
