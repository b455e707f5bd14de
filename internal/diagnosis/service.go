package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"agrivoice-ai/internal/retry"
)

// Tagger analyzes raw image bytes into short descriptive tags. An empty tag
// list is a valid result (inconclusive image), not an error.
type Tagger interface {
	Tags(ctx context.Context, image []byte) ([]string, error)
}

// AdviceContext carries everything the advisor needs to generate a
// diagnosis. The advisor is always invoked in the base language; translation
// is a separate stage.
type AdviceContext struct {
	Tags             []string
	Question         string
	CropType         CropType
	Severity         Severity
	AffectedArea     string
	FarmerExperience FarmerExperience
	Season           Season
}

// Advisor generates the free-text agronomist diagnosis.
type Advisor interface {
	Advise(ctx context.Context, ac AdviceContext) (string, error)
}

// Translator translates text into the farmer's language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Synthesizer renders text as base64-encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (string, error)
}

// EventSink receives one Event per completed pipeline. Failures are the
// caller's to swallow: analytics must never affect a farmer's response.
type EventSink interface {
	Log(ctx context.Context, e Event) error
}

// Repository is the per-user history ledger.
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	List(ctx context.Context, userID uuid.UUID, limit int) ([]Record, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Record, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (*HistoryStats, error)
}

var (
	// ErrEmptyImage is returned before any remote call when the request
	// carries no image bytes.
	ErrEmptyImage = errors.New("image is empty")
	// ErrNotFound is returned by history lookups for unknown records.
	ErrNotFound = errors.New("diagnosis not found")
)

type Service interface {
	Diagnose(ctx context.Context, req Request) (*Response, error)
	DiagnoseAndSave(ctx context.Context, userID uuid.UUID, req Request) (*Response, *Record, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]Record, error)
	HistoryDetail(ctx context.Context, userID, id uuid.UUID) (*Record, error)
	DeleteRecord(ctx context.Context, userID, id uuid.UUID) error
	HistoryStats(ctx context.Context, userID uuid.UUID) (*HistoryStats, error)
}

type service struct {
	tagger      Tagger
	advisor     Advisor
	translator  Translator
	synthesizer Synthesizer
	sink        EventSink
	repo        Repository
	retryCfg    retry.Config
	now         func() time.Time
}

func NewService(tagger Tagger, advisor Advisor, translator Translator, synth Synthesizer, sink EventSink, repo Repository, retryCfg retry.Config) Service {
	return &service{
		tagger:      tagger,
		advisor:     advisor,
		translator:  translator,
		synthesizer: synth,
		sink:        sink,
		repo:        repo,
		retryCfg:    retryCfg,
		now:         time.Now,
	}
}

// Diagnose runs the full pipeline for one request. Tagging and advisory
// generation are hard stages: their failure aborts the run. Translation,
// audio synthesis and event logging degrade gracefully: the farmer still
// gets the base-language diagnosis.
func (s *service) Diagnose(ctx context.Context, req Request) (*Response, error) {
	if len(req.Image) == 0 {
		return nil, ErrEmptyImage
	}
	lang := NormalizeLanguage(req.Language)

	// 1. Tag the image. Empty tags are fine; adapter errors are not.
	tags, err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) ([]string, error) {
		return s.tagger.Tags(ctx, req.Image)
	})
	if err != nil {
		return nil, fmt.Errorf("image analysis failed: %w", err)
	}

	severity := req.SeverityEstimate
	if severity == "" {
		severity = SeverityModerate
	}
	experience := req.FarmerExperience
	if experience == "" {
		experience = ExperienceIntermediate
	}

	// 2. Generate the advisory in the base language so the canonical text
	// logged and stored is stable across target languages.
	advisory, err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) (string, error) {
		return s.advisor.Advise(ctx, AdviceContext{
			Tags:             tags,
			Question:         req.Question,
			CropType:         req.CropType,
			Severity:         severity,
			AffectedArea:     req.AffectedArea,
			FarmerExperience: experience,
			Season:           req.Season,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("diagnosis generation failed: %w", err)
	}

	// 3. Translate. The base language short-circuits without a remote call,
	// and a failed translation falls back to the original text.
	translated := advisory
	if lang != BaseLanguage {
		if t, terr := s.translator.Translate(ctx, advisory, lang); terr != nil {
			log.Printf("Warning: translation to %s failed, using original text: %v", lang, terr)
		} else {
			translated = t
		}
	}

	// 4. Synthesize audio. Purely a nice-to-have channel.
	audio, aerr := s.synthesizer.Synthesize(ctx, translated, lang)
	if aerr != nil {
		log.Printf("Warning: audio synthesis failed (non-blocking): %v", aerr)
		audio = ""
	}

	diseaseName := ExtractField(advisory, "DISEASE")
	_, yieldImpact := SeverityInfo(severity)

	// 5. Hand the event to analytics. The response is already decided.
	if err := s.sink.Log(ctx, Event{
		Timestamp:    s.now(),
		DetectedTags: tags,
		Query:        req.Question,
		Language:     lang,
		CropType:     string(req.CropType),
		Severity:     string(severity),
		DiseaseName:  diseaseName,
		Diagnosis:    advisory,
		Experience:   string(experience),
	}); err != nil {
		log.Printf("Warning: event logging failed: %v", err)
	}

	return &Response{
		Status:               "success",
		Diagnosis:            translated,
		DiagnosisOriginal:    advisory,
		DiseaseName:          diseaseName,
		Severity:             severity,
		AffectedPlantParts:   ExtractPlantParts(advisory),
		ImmediateActions:     ExtractActions(advisory, "IMMEDIATE"),
		OngoingActions:       ExtractActions(advisory, "ONGOING"),
		PreventionStrategies: ExtractActions(advisory, "PREVENTION"),
		TimelineToRecovery:   ExtractTimeline(advisory),
		YieldImpact:          yieldImpact,
		ReplantingNeeded:     severity == SeveritySevere,
		AudioBase64:          audio,
		Language:             lang,
		Tags:                 tags,
	}, nil
}

// DiagnoseAndSave runs the pipeline and appends the result to the farmer's
// history ledger. A ledger write failure degrades like any other soft stage:
// the response is returned without a record.
func (s *service) DiagnoseAndSave(ctx context.Context, userID uuid.UUID, req Request) (*Response, *Record, error) {
	resp, err := s.Diagnose(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	rec := &Record{
		ID:             uuid.New(),
		UserID:         userID,
		Query:          req.Question,
		Language:       resp.Language,
		DetectedTags:   resp.Tags,
		DiagnosisText:  resp.DiagnosisOriginal,
		TranslatedText: resp.Diagnosis,
		AudioBase64:    resp.AudioBase64,
		DiseaseName:    resp.DiseaseName,
		Severity:       resp.Severity,
		CreatedAt:      s.now(),
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		log.Printf("Warning: failed to save diagnosis %s to history: %v", rec.ID, err)
		return resp, nil, nil
	}
	return resp, rec, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, userID, limit)
}

func (s *service) HistoryDetail(ctx context.Context, userID, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func (s *service) DeleteRecord(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *service) HistoryStats(ctx context.Context, userID uuid.UUID) (*HistoryStats, error) {
	return s.repo.Stats(ctx, userID)
}
