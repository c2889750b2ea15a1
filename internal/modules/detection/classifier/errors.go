package classifier

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingCredential  = errors.New("model api key is missing")
	ErrInvalidCredential  = errors.New("model api key was rejected")
	ErrBadUpstreamRequest = errors.New("model provider rejected the request")
	ErrUpstreamFailure    = errors.New("model provider failed")
	ErrEmptyResponse      = errors.New("model returned no content")
)

// ClassifierError carries the error kind (one of the Err* sentinels), the
// upstream HTTP status when there was one, and the underlying cause.
type ClassifierError struct {
	Kind     error
	Provider Provider
	Status   int
	Err      error
}

func (e *ClassifierError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: %v (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
}

func (e *ClassifierError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// statusError maps an upstream HTTP status to the error taxonomy.
func statusError(p Provider, status int, err error) *ClassifierError {
	kind := ErrUpstreamFailure
	switch status {
	case http.StatusUnauthorized:
		kind = ErrInvalidCredential
	case http.StatusBadRequest:
		kind = ErrBadUpstreamRequest
	}
	return &ClassifierError{Kind: kind, Provider: p, Status: status, Err: err}
}

// HTTPStatus is the status the API answers with for err.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingCredential), errors.Is(err, ErrBadUpstreamRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredential):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message is the localized, user-facing text for err.
func Message(err error) string {
	var ce *ClassifierError
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "Model API anahtarı bulunamadı. Lütfen ayarlar sayfasından API anahtarınızı girin."
	case errors.Is(err, ErrInvalidCredential):
		return "Geçersiz API anahtarı. Lütfen ayarlar sayfasından doğru API anahtarınızı girin."
	case errors.Is(err, ErrBadUpstreamRequest):
		return "Geçersiz istek formatı veya model ismi. Lütfen model seçimini kontrol edin."
	case errors.Is(err, ErrEmptyResponse):
		return "AI yanıtı alınamadı"
	case errors.As(err, &ce) && ce.Status != 0:
		return fmt.Sprintf("Model servisi hatası: %d. Servis geçici olarak kullanılamıyor.", ce.Status)
	default:
		return "Model servisi geçici olarak kullanılamıyor. Lütfen daha sonra tekrar deneyin."
	}
}
