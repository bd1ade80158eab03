package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/ec-cart-offers/internal/api/middleware"
	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/example/ec-cart-offers/internal/command"
	"github.com/example/ec-cart-offers/internal/domain/cart"
	"github.com/example/ec-cart-offers/internal/logger"
	"github.com/example/ec-cart-offers/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	log          *logger.Logger
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, log *logger.Logger) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		log:          log.Component("API"),
	}
}

// Cart Handlers

type addToCartRequest struct {
	ProductID string       `json:"product_id"`
	Quantity  int          `json:"quantity"`
	Variant   cart.Variant `json:"variant,omitempty"`
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	owner := getOwner(r)
	c, err := h.cmdHandler.AddItemToCart(r.Context(), command.AddToCart{
		UserID:    owner.UserID,
		SessionID: owner.SessionID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Variant:   req.Variant,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, c)
}

// variantParamPrefix namespaces variant attributes in the query string, so
// ?variant.size=M&variant.color=red selects {"size":"M","color":"red"}.
const variantParamPrefix = "variant."

// RemoveFromCart selects the line by product id and variant. The variant is
// either a JSON object in ?variant= (for non-string values) or a set of
// variant.<attr> string parameters. Other parameters are ignored.
func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	owner := getOwner(r)
	productID := extractPathParam(r.URL.Path, "/cart/items/")

	variant, err := variantFromQuery(r.URL.Query())
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid variant")
		return
	}

	c, err := h.cmdHandler.RemoveFromCart(r.Context(), command.RemoveFromCart{
		UserID:    owner.UserID,
		SessionID: owner.SessionID,
		ProductID: productID,
		Variant:   variant,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	owner := getOwner(r)
	c, err := h.cmdHandler.ClearCart(r.Context(), command.ClearCart{
		UserID:    owner.UserID,
		SessionID: owner.SessionID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.queryHandler.GetCart(r.Context(), getOwner(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// GetCartByID is the support view of any cart by id.
func (h *Handlers) GetCartByID(w http.ResponseWriter, r *http.Request) {
	c, err := h.queryHandler.GetCartByID(r.Context(), extractPathParam(r.URL.Path, "/carts/"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Helper functions

func variantFromQuery(q url.Values) (cart.Variant, error) {
	if raw := q.Get("variant"); raw != "" {
		var v cart.Variant
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		return v, nil
	}

	var variant cart.Variant
	for k, v := range q {
		name, ok := strings.CutPrefix(k, variantParamPrefix)
		if !ok || name == "" || len(v) == 0 {
			continue
		}
		if variant == nil {
			variant = cart.Variant{}
		}
		variant[name] = v[0]
	}
	return variant, nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondError maps err to a status. Server faults are logged and their
// detail is not sent to the client.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if !apperr.IsClientFault(err) {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondMessage(w, apperr.HTTPStatus(err), err.Error())
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

// getOwner builds the cart owner from the verified token and the guest
// session id. Either may be empty.
func getOwner(r *http.Request) cart.Owner {
	return cart.Owner{
		UserID:    middleware.GetUserID(r.Context()),
		SessionID: middleware.GetSessionID(r.Context()),
	}
}
