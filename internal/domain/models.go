package domain

import "time"

// Orden fijo de los rasgos Big Five; los scorers mapean posicionalmente sobre esta lista.
var TraitNames = []string{
	"Openness",
	"Conscientiousness",
	"Extraversion",
	"Agreeableness",
	"Neuroticism",
}

// TraitScores mapea cada rasgo Big Five a un valor en [0,1].
// Toda instancia producida por un scorer o por la fusión contiene las cinco claves.
type TraitScores map[string]float64

// NeutralScores devuelve el mapa neutro (todos los rasgos en 0.5).
func NeutralScores() TraitScores {
	scores := make(TraitScores, len(TraitNames))
	for _, trait := range TraitNames {
		scores[trait] = 0.5
	}
	return scores
}

// PostRecord es un post ya normalizado; inmutable después del fetch.
type PostRecord struct {
	ID            string    `json:"id"`
	Caption       string    `json:"caption"`
	Likes         int       `json:"likes"`
	CommentsCount int       `json:"comments_count"`
	Date          time.Time `json:"date"`
	ImagePath     string    `json:"image_path"`
	IsVideo       bool      `json:"is_video"`
	Hashtags      []string  `json:"hashtags"`
	Mentions      []string  `json:"mentions"`
	Location      string    `json:"location,omitempty"`
	URL           string    `json:"url"`
	Comments      []string  `json:"comments"`
}

// ProfileInfo son los metadatos publicos del perfil. Un valor vacío
// significa "no disponible", nunca un error.
type ProfileInfo struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	Biography     string `json:"biography"`
	Followers     int64  `json:"followers"`
	Following     int64  `json:"following"`
	PostsCount    int64  `json:"posts_count"`
	IsPrivate     bool   `json:"is_private"`
	IsVerified    bool   `json:"is_verified"`
	ProfilePicURL string `json:"profile_pic_url"`
}

// IsZero indica si el colaborador no devolvio datos del perfil.
func (p ProfileInfo) IsZero() bool {
	return p == ProfileInfo{}
}

// AnalysisResult agrega todo lo producido por una petición de análisis.
// Es propiedad exclusiva del orquestador durante la petición.
type AnalysisResult struct {
	RunID         string       `json:"run_id"`
	Subject       string       `json:"subject"`
	Traits        TraitScores  `json:"personality_traits"`
	TextScores    TraitScores  `json:"text_scores"`
	ImageScores   TraitScores  `json:"image_scores"`
	Confidence    float64      `json:"confidence"`
	PostsAnalyzed int          `json:"posts_analyzed"`
	SampleData    []PostRecord `json:"sample_data"`
	Visualization string       `json:"visualization"`
	ProfileInfo   ProfileInfo  `json:"profile_info"`
	ImageFeatures []float64    `json:"-"`
	CreatedAt     time.Time    `json:"created_at"`
}
