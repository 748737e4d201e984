package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contactman/internal/middleware"
	"github.com/hitoshi/contactman/internal/model"
)

// bdDateLayout は誕生日フィールドの日付フォーマット。
const bdDateLayout = "2006-01-02"

// 一覧取得パラメータの制約
const (
	defaultLimit  = 10
	minLimit      = 10
	maxLimit      = 500
	defaultOffset = 0
	minOffset     = 0
	maxOffset     = 200
)

// ContactServiceInterface は連絡先ハンドラーが必要とするサービスインターフェース。
type ContactServiceInterface interface {
	// ListContacts はオーナーの連絡先を登録順で返す。
	ListContacts(ctx context.Context, ownerID int64, limit, offset int) ([]*model.Contact, error)
	// GetContact は指定IDの連絡先を返す。見つからない場合はnilを返す。
	GetContact(ctx context.Context, ownerID, contactID int64) (*model.Contact, error)
	// CreateContact は連絡先を新規作成する。
	CreateContact(ctx context.Context, ownerID int64, fields model.ContactFields) (*model.Contact, error)
	// UpdateContact は指定IDの連絡先を一括更新する。
	UpdateContact(ctx context.Context, ownerID, contactID int64, fields model.ContactFields) (*model.Contact, error)
	// DeleteContact は指定IDの連絡先を削除し、削除直前のエンティティを返す。
	DeleteContact(ctx context.Context, ownerID, contactID int64) (*model.Contact, error)
	// SearchContacts は検索値に一致する連絡先を返す。
	SearchContacts(ctx context.Context, ownerID int64, value string) ([]*model.Contact, error)
	// BirthdayNextWeek は誕生日が今後1週間以内の連絡先を返す。
	BirthdayNextWeek(ctx context.Context, ownerID int64) ([]*model.Contact, error)
}

// ContactHandler は連絡先管理のHTTPハンドラー。
type ContactHandler struct {
	service ContactServiceInterface
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(service ContactServiceInterface) *ContactHandler {
	return &ContactHandler{
		service: service,
	}
}

// contactRequest は連絡先の作成・更新リクエストのボディ。
type contactRequest struct {
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	Email          string `json:"email"`
	Number         string `json:"number"`
	BdDate         string `json:"bd_date"`
	AdditionalData string `json:"additional_data"`
}

// contactResponse は連絡先情報のAPIレスポンス。
type contactResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	Email          string `json:"email"`
	Number         string `json:"number"`
	BdDate         string `json:"bd_date"`
	AdditionalData string `json:"additional_data"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// ListContacts は連絡先一覧を取得する。
// GET /contacts?limit=&offset=
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	limit, offset, apiErr := parseListParams(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	contacts, err := h.service.ListContacts(r.Context(), ownerID, limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeContactListResponse(w, contacts)
}

// CreateContact は連絡先を新規作成する。
// POST /contacts
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	fields, apiErr := decodeContactRequest(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	contact, err := h.service.CreateContact(r.Context(), ownerID, *fields)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toContactResponse(contact))
}

// GetContact は連絡先詳細を取得する。
// GET /contacts/{id}
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	contactID, apiErr := parseContactID(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	contact, err := h.service.GetContact(r.Context(), ownerID, contactID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if contact == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewContactNotFoundError(contactID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toContactResponse(contact))
}

// UpdateContact は連絡先の全可変フィールドを一括更新する。
// PUT /contacts/{id}
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	contactID, apiErr := parseContactID(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	fields, apiErr := decodeContactRequest(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	contact, err := h.service.UpdateContact(r.Context(), ownerID, contactID, *fields)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if contact == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewContactNotFoundError(contactID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toContactResponse(contact))
}

// DeleteContact は連絡先を削除し、削除直前のエンティティを返す。
// DELETE /contacts/{id}
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	contactID, apiErr := parseContactID(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	contact, err := h.service.DeleteContact(r.Context(), ownerID, contactID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if contact == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewContactNotFoundError(contactID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toContactResponse(contact))
}

// SearchContacts は名・姓・メールアドレスの一致で連絡先を検索する。
// GET /contacts/search/{value}
func (h *ContactHandler) SearchContacts(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	value := chi.URLParam(r, "value")
	if value == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("検索値が空です"))
		return
	}

	contacts, err := h.service.SearchContacts(r.Context(), ownerID, value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeContactListResponse(w, contacts)
}

// BirthdayNextWeek は誕生日が今後1週間以内の連絡先を取得する。
// GET /contacts/birthday/next-week
func (h *ContactHandler) BirthdayNextWeek(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	contacts, err := h.service.BirthdayNextWeek(r.Context(), ownerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeContactListResponse(w, contacts)
}

// --- ヘルパー関数 ---

// parseListParams は一覧取得のlimit/offsetパラメータを検証して返す。
// 未指定時はデフォルト値を使い、範囲外の値はエラーにする。
func parseListParams(r *http.Request) (int, int, *model.APIError) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, model.NewValidationError("limitは整数で指定してください")
		}
		if v < minLimit || v > maxLimit {
			return 0, 0, model.NewValidationError("limitは10以上500以下で指定してください")
		}
		limit = v
	}

	offset := defaultOffset
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, model.NewValidationError("offsetは整数で指定してください")
		}
		if v < minOffset || v > maxOffset {
			return 0, 0, model.NewValidationError("offsetは0以上200以下で指定してください")
		}
		offset = v
	}

	return limit, offset, nil
}

// parseContactID はパスパラメータの連絡先IDを検証して返す。IDは1以上の整数。
func parseContactID(r *http.Request) (int64, *model.APIError) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, model.NewValidationError("連絡先IDは整数で指定してください")
	}
	if id < 1 {
		return 0, model.NewValidationError("連絡先IDは1以上で指定してください")
	}
	return id, nil
}

// decodeContactRequest はリクエストボディを解析・検証してContactFieldsに変換する。
func decodeContactRequest(r *http.Request) (*model.ContactFields, *model.APIError) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, model.NewInvalidRequestError("リクエストボディの解析に失敗しました")
	}

	if req.Name == "" {
		return nil, model.NewValidationError("nameは必須です")
	}
	if req.Surname == "" {
		return nil, model.NewValidationError("surnameは必須です")
	}
	if req.Email == "" {
		return nil, model.NewValidationError("emailは必須です")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, model.NewValidationError("emailの形式が不正です")
	}
	if req.Number == "" {
		return nil, model.NewValidationError("numberは必須です")
	}

	bdDate, err := time.Parse(bdDateLayout, req.BdDate)
	if err != nil {
		return nil, model.NewValidationError("bd_dateはYYYY-MM-DD形式で指定してください")
	}

	return &model.ContactFields{
		Name:           req.Name,
		Surname:        req.Surname,
		Email:          req.Email,
		Number:         req.Number,
		BirthDate:      bdDate,
		AdditionalData: req.AdditionalData,
	}, nil
}

// toContactResponse はmodel.ContactからAPIレスポンスに変換する。
func toContactResponse(contact *model.Contact) contactResponse {
	return contactResponse{
		ID:             contact.ID,
		Name:           contact.Name,
		Surname:        contact.Surname,
		Email:          contact.Email,
		Number:         contact.Number,
		BdDate:         contact.BirthDate.Format(bdDateLayout),
		AdditionalData: contact.AdditionalData,
		CreatedAt:      contact.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      contact.UpdatedAt.Format(time.RFC3339),
	}
}

// writeContactListResponse は連絡先一覧をJSON配列で書き込む。
func writeContactListResponse(w http.ResponseWriter, contacts []*model.Contact) {
	resp := make([]contactResponse, 0, len(contacts))
	for _, c := range contacts {
		resp = append(resp, toContactResponse(c))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// エラーレスポンスの書き込みはmiddlewareの統一フォーマットに委譲する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		middleware.WriteErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeContactNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateContact:
		return http.StatusBadRequest
	case model.ErrCodeInvalidRequest, model.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
