package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/usecases"
	"github.com/medrail/casebook/internal/usecases/commands"
	"github.com/medrail/casebook/internal/usecases/queries"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgInvalidItemID      = "invalid catalog item ID"
	msgUnknownCatalogKind = "unknown catalog kind"
)

// catalogSlugs maps the URL segment of each catalog collection to its kind.
var catalogSlugs = map[string]model.CatalogKind{
	"surgery-sets":    model.KindSurgerySets,
	"implant-boxes":   model.KindImplantBoxes,
	"departments":     model.KindDepartments,
	"doctors":         model.KindDoctors,
	"procedure-types": model.KindProcedureTypes,
}

type (
	checkVersionsRequest struct {
		SessionID string `json:"session_id"`
		Country   string `json:"country"`
	}

	acknowledgeRequest struct {
		SessionID string `json:"session_id"`
		Signature string `json:"signature"`
	}

	bumpVersionRequest struct {
		Country     string `json:"country"`
		VersionType string `json:"version_type"`
		TableName   string `json:"table_name"`
		UpdatedBy   string `json:"updated_by"`
		Reason      string `json:"reason"`
	}

	logoutRequest struct {
		SessionID string `json:"session_id"`
	}

	refreshPermissionsRequest struct {
		Force bool `json:"force"`
	}

	catalogItemRequest struct {
		Country   string `json:"country"`
		Name      string `json:"name"`
		Active    *bool  `json:"active,omitempty"`
		UpdatedBy string `json:"updated_by"`
		Reason    string `json:"reason"`
	}

	catalogListResponse struct {
		Data []model.CatalogItem `json:"data"`
	}

	catalogItemResponse struct {
		Data model.CatalogItem `json:"data"`
	}

	CasebookHandler struct {
		app *usecases.Application
	}
)

func NewCasebookHandler(app *usecases.Application) *CasebookHandler {
	return &CasebookHandler{app: app}
}

func (h *CasebookHandler) CheckCacheVersions(w http.ResponseWriter, r *http.Request) {
	var req checkVersionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, msgInvalidRequestBody)

		return
	}

	report, err := h.app.Queries.CheckCacheVersions.Execute(r.Context(), queries.CheckCacheVersionsQuery{
		SessionID: req.SessionID,
		Country:   req.Country,
	})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, report)
}

func (h *CasebookHandler) AcknowledgeMismatch(w http.ResponseWriter, r *http.Request) {
	var req acknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, msgInvalidRequestBody)

		return
	}

	_, err := h.app.Commands.AcknowledgeMismatch.Handle(r.Context(), commands.AcknowledgeMismatchCommand{
		SessionID: req.SessionID,
		Signature: req.Signature,
	})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CasebookHandler) BumpCacheVersion(w http.ResponseWriter, r *http.Request) {
	var req bumpVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, msgInvalidRequestBody)

		return
	}

	version, err := h.app.Commands.BumpCacheVersion.Handle(r.Context(), commands.BumpCacheVersionCommand{
		Country:     req.Country,
		VersionType: req.VersionType,
		TableName:   req.TableName,
		UpdatedBy:   req.UpdatedBy,
		Reason:      req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, version)
}

func (h *CasebookHandler) ForceLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, msgInvalidRequestBody)

		return
	}

	_, err := h.app.Commands.ForceLogout.Handle(r.Context(), commands.ForceLogoutCommand{SessionID: req.SessionID})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CasebookHandler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	query := queries.CheckPermissionQuery{
		UserID:   r.URL.Query().Get("user"),
		RoleID:   r.URL.Query().Get("role"),
		ActionID: r.URL.Query().Get("action"),
	}

	decision, err := h.app.Queries.CheckPermission.Execute(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, decision)
}

func (h *CasebookHandler) RefreshPermissions(w http.ResponseWriter, r *http.Request) {
	var req refreshPermissionsRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, msgInvalidRequestBody)

			return
		}
	}

	_, err := h.app.Commands.RefreshPermissions.Handle(r.Context(), commands.RefreshPermissionsCommand{Force: req.Force})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CasebookHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	kind, ok := catalogKind(r)
	if !ok {
		writeErrorResponse(w, http.StatusNotFound, codeNotFound, msgUnknownCatalogKind)

		return
	}

	items, err := h.app.Queries.ListCatalog.Execute(r.Context(), queries.ListCatalogQuery{
		Kind:    kind,
		Country: r.URL.Query().Get("country"),
	})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	if items == nil {
		items = []model.CatalogItem{}
	}

	writeJSONResponse(w, http.StatusOK, catalogListResponse{Data: items})
}

func (h *CasebookHandler) CreateCatalogItem(w http.ResponseWriter, r *http.Request) {
	kind, ok := catalogKind(r)
	if !ok {
		writeErrorResponse(w, http.StatusNotFound, codeNotFound, msgUnknownCatalogKind)

		return
	}

	var req catalogItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, msgInvalidRequestBody)

		return
	}

	item, err := h.app.Commands.CreateCatalogItem.Handle(r.Context(), commands.CreateCatalogItemCommand{
		Kind:      kind,
		Country:   req.Country,
		Name:      req.Name,
		UpdatedBy: req.UpdatedBy,
		Reason:    req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/catalog/%s/%s", chi.URLParam(r, "kind"), item.ID.String()))
	writeJSONResponse(w, http.StatusCreated, catalogItemResponse{Data: *item})
}

func (h *CasebookHandler) UpdateCatalogItem(w http.ResponseWriter, r *http.Request) {
	kind, ok := catalogKind(r)
	if !ok {
		writeErrorResponse(w, http.StatusNotFound, codeNotFound, msgUnknownCatalogKind)

		return
	}

	id, err := model.ParseCatalogID(chi.URLParam(r, "itemID"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidID, msgInvalidItemID)

		return
	}

	var req catalogItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, msgInvalidRequestBody)

		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	item, err := h.app.Commands.UpdateCatalogItem.Handle(r.Context(), commands.UpdateCatalogItemCommand{
		Kind:      kind,
		ID:        id,
		Country:   req.Country,
		Name:      req.Name,
		Active:    active,
		UpdatedBy: req.UpdatedBy,
		Reason:    req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, catalogItemResponse{Data: *item})
}

func (h *CasebookHandler) DeleteCatalogItem(w http.ResponseWriter, r *http.Request) {
	kind, ok := catalogKind(r)
	if !ok {
		writeErrorResponse(w, http.StatusNotFound, codeNotFound, msgUnknownCatalogKind)

		return
	}

	id, err := model.ParseCatalogID(chi.URLParam(r, "itemID"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidID, msgInvalidItemID)

		return
	}

	_, err = h.app.Commands.DeleteCatalogItem.Handle(r.Context(), commands.DeleteCatalogItemCommand{
		Kind:      kind,
		ID:        id,
		Country:   r.URL.Query().Get("country"),
		UpdatedBy: r.URL.Query().Get("updated_by"),
		Reason:    r.URL.Query().Get("reason"),
	})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CasebookHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Queries.FetchLiveness.Execute(r.Context(), queries.FetchLivenessQuery{})
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "down",
			"timestamp": time.Now().UTC(),
		})

		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

func (h *CasebookHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Queries.FetchReadiness.Execute(r.Context(), queries.FetchReadinessQuery{})
	if err != nil || !result.Ready {
		status := &queries.ReadinessResult{Status: "unavailable", Ready: false}
		if result != nil {
			status = result
		}

		writeJSONResponse(w, http.StatusServiceUnavailable, status)

		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

func (h *CasebookHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Queries.FetchHealthReport.Execute(r.Context(), queries.FetchHealthReportQuery{})
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "down",
			"timestamp": time.Now().UTC(),
		})

		return
	}

	httpStatus := http.StatusOK
	if report.Status != "healthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, httpStatus, report)
}

func catalogKind(r *http.Request) (model.CatalogKind, bool) {
	kind, ok := catalogSlugs[chi.URLParam(r, "kind")]

	return kind, ok
}
