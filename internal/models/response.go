package models

// HTTP payloads. Field names are the Spanish wire contract of the original
// mobile client; do not rename them.

type ErrorResponse struct {
	Mensaje string `json:"mensaje"`
}

type LoginRequest struct {
	Usuario    string `json:"usuario"`
	Contrasena string `json:"contraseña"`
}

type LoginResponse struct {
	Mensaje string `json:"mensaje"`
	Nombre  string `json:"nombre"`
	UserID  string `json:"userId"`
	IsAdmin bool   `json:"isAdmin"`
}

type SubirImagenResponse struct {
	Mensaje string `json:"mensaje"`
	URL     string `json:"url"`
}

// ActaAsset is one uploaded acta resource (the signed document or a
// supporting image).
type ActaAsset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type ActaUploadResponse struct {
	OK       bool        `json:"ok"`
	Mensaje  string      `json:"mensaje"`
	SesionID string      `json:"sesionId"`
	Acta     *ActaAsset  `json:"acta"`
	Imagenes []ActaAsset `json:"imagenes"`
}

type ActaSnapshotResponse struct {
	OK       bool        `json:"ok"`
	SesionID string      `json:"sesionId"`
	Acta     *ActaAsset  `json:"acta"`
	Imagenes []ActaAsset `json:"imagenes"`
}

type ActaDeleteRequest struct {
	PublicID string `json:"public_id"`
	Tipo     string `json:"tipo"` // "raw" | "image"
}

type OKResponse struct {
	OK      bool   `json:"ok"`
	Mensaje string `json:"mensaje,omitempty"`
}

type GenerarJSONResponse struct {
	OK               bool   `json:"ok"`
	URL              string `json:"url"`
	PublicID         string `json:"public_id"`
	IncludesActa     bool   `json:"includesActa"`
	SesionID         string `json:"sesionId"`
	TiendaID         string `json:"tiendaId,omitempty"`
	Ubicacion        string `json:"ubicacion,omitempty"`
	NumeroIncidencia string `json:"numeroIncidencia,omitempty"`
}

type ResetDetail struct {
	Imagenes int  `json:"imagenesN"`
	ActaPdf  bool `json:"actaPdf"`
	ActaImgs int  `json:"actaImgsN"`
}

type ResetResponse struct {
	OK      bool        `json:"ok"`
	Deleted ResetDetail `json:"deleted"`
}

// InformeItem is one listing row, annotated with a best-effort share URL
// resolved from whichever stored URL field is populated.
type InformeItem struct {
	Informe  `bson:",inline"`
	ShareURL string `json:"shareUrl,omitempty"`
}

type InformeListResponse struct {
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int64         `json:"totalPages"`
	Data       []InformeItem `json:"data"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type BulkDeleteFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type BulkDeleteDetail struct {
	ID          string `json:"id"`
	OK          bool   `json:"ok"`
	CloudResult string `json:"cloudResult,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type BulkDeleteResponse struct {
	OK      bool                `json:"ok"`
	Deleted int                 `json:"deleted"`
	Failed  []BulkDeleteFailure `json:"failed"`
	Details []BulkDeleteDetail  `json:"details"`
}

type DeleteInformeResponse struct {
	OK          bool   `json:"ok"`
	Mensaje     string `json:"mensaje"`
	CloudResult string `json:"cloudResult"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
