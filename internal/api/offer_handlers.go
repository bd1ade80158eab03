package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/ec-cart-offers/internal/api/middleware"
	"github.com/example/ec-cart-offers/internal/command"
)

func (h *Handlers) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateOffer
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.cmdHandler.CreateOffer(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

func (h *Handlers) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.queryHandler.ListActiveOffers(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, offers)
}

func (h *Handlers) GetOffer(w http.ResponseWriter, r *http.Request) {
	o, err := h.queryHandler.GetOffer(r.Context(), offerPath(r.URL.Path))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) RedeemOffer(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(offerPath(r.URL.Path), "/redeem")

	var req struct {
		CartID string `json:"cart_id"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	o, redeemed, err := h.cmdHandler.RedeemOffer(r.Context(), command.RedeemOffer{
		OfferID: id,
		UserID:  middleware.GetUserID(r.Context()),
		CartID:  req.CartID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if !redeemed {
		status = http.StatusConflict
	}
	respondJSON(w, status, map[string]any{
		"redeemed": redeemed,
		"offer":    o,
	})
}

func (h *Handlers) GetRedemptionCount(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(offerPath(r.URL.Path), "/redemptions")
	userID := middleware.GetUserID(r.Context())

	n, err := h.queryHandler.RedemptionCount(r.Context(), id, userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"offer_id": id,
		"user_id":  userID,
		"count":    n,
	})
}

func offerPath(path string) string {
	return extractPathParam(path, "/offers/")
}
