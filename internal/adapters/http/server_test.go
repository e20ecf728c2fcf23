package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"prismfinance/internal/domain"
	"prismfinance/internal/ports"
)

// fakeContracts embeds the interface so only the methods under test need
// implementations; anything else panics loudly.
type fakeContracts struct {
	ports.Contracts
	signedParty domain.Party
	signedSig   domain.Signature
	signErr     error
}

func (f *fakeContracts) Sign(_ context.Context, id string, party domain.Party, sig domain.Signature, actor string) (*domain.Contract, error) {
	f.signedParty = party
	f.signedSig = sig
	if f.signErr != nil {
		return nil, f.signErr
	}
	return &domain.Contract{ID: id, Status: domain.StatusPendingSignature}, nil
}

func TestSignEndpointsRouteToParty(t *testing.T) {
	tests := []struct {
		path string
		want domain.Party
	}{
		{"/contracts/c1/sign", domain.PartySupplier},
		{"/contracts/c1/sign/admin", domain.PartyAdmin},
	}
	for _, tt := range tests {
		fake := &fakeContracts{}
		srv := New(nil, nil, fake)
		req := httptest.NewRequest(http.MethodPost, tt.path,
			strings.NewReader(`{"name":"Jean Dupont","title":"CEO","date":"2026-03-01"}`))
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, body %s", tt.path, rec.Code, rec.Body.String())
		}
		if fake.signedParty != tt.want {
			t.Errorf("%s: party = %s, want %s", tt.path, fake.signedParty, tt.want)
		}
		if fake.signedSig.Name != "Jean Dupont" || fake.signedSig.Date.IsZero() {
			t.Errorf("%s: signature = %+v", tt.path, fake.signedSig)
		}
	}
}

func TestSignConflictStatus(t *testing.T) {
	fake := &fakeContracts{signErr: domain.ErrAlreadySigned}
	srv := New(nil, nil, fake)
	req := httptest.NewRequest(http.MethodPost, "/contracts/c1/sign",
		strings.NewReader(`{"name":"Jean"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: name required", domain.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{domain.ErrUnsupportedDocumentFormat, http.StatusBadRequest, "UNSUPPORTED_DOCUMENT_FORMAT"},
		{domain.ErrAlreadySigned, http.StatusConflict, "ALREADY_SIGNED"},
		{domain.ErrContractAlreadyFinal, http.StatusConflict, "CONTRACT_ALREADY_FINAL"},
		{domain.ErrInvalidStateForDeletion, http.StatusConflict, "INVALID_STATE_FOR_DELETION"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, tt.err)
		if rec.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
		}
		if !strings.Contains(rec.Body.String(), tt.code) {
			t.Errorf("%v: body %s missing code %q", tt.err, rec.Body.String(), tt.code)
		}
	}
}

func TestListContractsRejectsUnknownStatus(t *testing.T) {
	srv := New(nil, nil, &fakeContracts{})
	req := httptest.NewRequest(http.MethodGet, "/contracts?status=limbo", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
