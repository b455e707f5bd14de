package diagnosis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"agrivoice-ai/internal/retry"
)

const fixedAdvisory = `DISEASE: Gray Leaf Spot
SEVERITY: moderate

IMMEDIATE ACTIONS
1. Remove affected leaves
2. Spray neem oil

TIMELINE for improvement: 10-14 days
`

type fakeTagger struct {
	tags  []string
	err   error
	calls int
}

func (f *fakeTagger) Tags(ctx context.Context, image []byte) ([]string, error) {
	f.calls++
	return f.tags, f.err
}

type fakeAdvisor struct {
	text    string
	err     error
	lastCtx AdviceContext
}

func (f *fakeAdvisor) Advise(ctx context.Context, ac AdviceContext) (string, error) {
	f.lastCtx = ac
	return f.text, f.err
}

type fakeTranslator struct {
	out   string
	err   error
	calls int
}

func (f *fakeTranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	f.calls++
	return f.out, f.err
}

type fakeSynth struct {
	audio string
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, lang string) (string, error) {
	return f.audio, f.err
}

type fakeSink struct {
	events []Event
	err    error
}

func (f *fakeSink) Log(ctx context.Context, e Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

type fakeRepo struct {
	saved   []*Record
	saveErr error
}

func (f *fakeRepo) Save(ctx context.Context, rec *Record) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, rec)
	return nil
}
func (f *fakeRepo) List(ctx context.Context, userID uuid.UUID, limit int) ([]Record, error) {
	var out []Record
	for _, r := range f.saved {
		out = append(out, *r)
	}
	return out, nil
}
func (f *fakeRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*Record, error) {
	for _, r := range f.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrNotFound
}
func (f *fakeRepo) Delete(ctx context.Context, userID, id uuid.UUID) error { return nil }
func (f *fakeRepo) Stats(ctx context.Context, userID uuid.UUID) (*HistoryStats, error) {
	return &HistoryStats{TotalDiagnoses: len(f.saved)}, nil
}

type fixture struct {
	tagger     *fakeTagger
	advisor    *fakeAdvisor
	translator *fakeTranslator
	synth      *fakeSynth
	sink       *fakeSink
	repo       *fakeRepo
	svc        Service
}

func newFixture() *fixture {
	f := &fixture{
		tagger:     &fakeTagger{tags: []string{"yellow leaf", "spots"}},
		advisor:    &fakeAdvisor{text: fixedAdvisory},
		translator: &fakeTranslator{out: "tafsiri"},
		synth:      &fakeSynth{audio: "QUJD"},
		sink:       &fakeSink{},
		repo:       &fakeRepo{},
	}
	cfg := retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, Factor: 2}
	f.svc = NewService(f.tagger, f.advisor, f.translator, f.synth, f.sink, f.repo, cfg)
	return f
}

func baseRequest() Request {
	return Request{
		Image:    []byte{0xFF, 0xD8, 0xFF},
		Question: "why yellow?",
		Language: "en",
	}
}

func TestDiagnoseBaseLanguageIdentityShortcut(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.Diagnose(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "success" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.Diagnosis != resp.DiagnosisOriginal {
		t.Fatal("base language response must not be translated")
	}
	if f.translator.calls != 0 {
		t.Fatalf("translator invoked %d times for base language", f.translator.calls)
	}
	if len(resp.Tags) != 2 || resp.Tags[0] != "yellow leaf" || resp.Tags[1] != "spots" {
		t.Fatalf("tags = %#v", resp.Tags)
	}
	if resp.AudioBase64 != "QUJD" {
		t.Fatalf("audio = %q", resp.AudioBase64)
	}
	if resp.DiseaseName != "Gray Leaf Spot" {
		t.Fatalf("disease = %q", resp.DiseaseName)
	}
	if len(resp.ImmediateActions) != 2 {
		t.Fatalf("immediate actions = %#v", resp.ImmediateActions)
	}
}

func TestDiagnoseTranslationFailureFallsBack(t *testing.T) {
	f := newFixture()
	f.translator.err = errors.New("translator down")

	req := baseRequest()
	req.Language = "sw"
	resp, err := f.svc.Diagnose(context.Background(), req)
	if err != nil {
		t.Fatalf("translation failure must not abort: %v", err)
	}
	if resp.Status != "success" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.Diagnosis != resp.DiagnosisOriginal {
		t.Fatal("expected fallback to the original text")
	}
	if resp.Language != "sw" {
		t.Fatalf("language = %q", resp.Language)
	}
}

func TestDiagnoseTranslationHappyPath(t *testing.T) {
	f := newFixture()
	req := baseRequest()
	req.Language = "sw"
	resp, err := f.svc.Diagnose(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Diagnosis != "tafsiri" || resp.DiagnosisOriginal != fixedAdvisory {
		t.Fatalf("diagnosis = %q original = %q", resp.Diagnosis, resp.DiagnosisOriginal)
	}
}

func TestDiagnoseSynthesizerFailureIsSoft(t *testing.T) {
	f := newFixture()
	f.synth.err = errors.New("tts down")

	resp, err := f.svc.Diagnose(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("synthesizer failure must not abort: %v", err)
	}
	if resp.Status != "success" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.AudioBase64 != "" {
		t.Fatalf("audio should be absent, got %q", resp.AudioBase64)
	}
}

func TestDiagnoseSinkFailureIsSoft(t *testing.T) {
	f := newFixture()
	f.sink.err = errors.New("sink down")

	resp, err := f.svc.Diagnose(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("sink failure must not abort: %v", err)
	}
	if resp.Status != "success" {
		t.Fatalf("status = %q", resp.Status)
	}
}

func TestDiagnoseTaggerFailureAbortsAfterRetries(t *testing.T) {
	f := newFixture()
	f.tagger.err = errors.New("connection refused")
	// Retry everything so the attempt count is observable.
	cfg := retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, Factor: 2, Retryable: func(error) bool { return true }}
	f.svc = NewService(f.tagger, f.advisor, f.translator, f.synth, f.sink, f.repo, cfg)

	_, err := f.svc.Diagnose(context.Background(), baseRequest())
	if err == nil {
		t.Fatal("expected hard failure")
	}
	if f.tagger.calls != 3 {
		t.Fatalf("expected 3 tagging attempts, got %d", f.tagger.calls)
	}
	if len(f.sink.events) != 0 {
		t.Fatal("no event may be logged when the pipeline never reached the advisory stage")
	}
}

func TestDiagnoseAdvisorFailureAborts(t *testing.T) {
	f := newFixture()
	f.advisor.err = errors.New("model overloaded")

	_, err := f.svc.Diagnose(context.Background(), baseRequest())
	if err == nil {
		t.Fatal("expected hard failure")
	}
	if len(f.sink.events) != 0 {
		t.Fatal("no event may be logged on advisory failure")
	}
}

func TestDiagnoseEmptyImageRejectedBeforeRemoteCalls(t *testing.T) {
	f := newFixture()
	req := baseRequest()
	req.Image = nil

	_, err := f.svc.Diagnose(context.Background(), req)
	if !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if f.tagger.calls != 0 {
		t.Fatal("tagger must not be called for an empty image")
	}
}

func TestDiagnoseEmptyTagsAreValid(t *testing.T) {
	f := newFixture()
	f.tagger.tags = nil

	resp, err := f.svc.Diagnose(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("empty tags are a valid inconclusive result: %v", err)
	}
	if resp.Status != "success" {
		t.Fatalf("status = %q", resp.Status)
	}
}

func TestDiagnoseUnrecognizedLanguageDefaultsToBase(t *testing.T) {
	f := newFixture()
	req := baseRequest()
	req.Language = "xx"

	resp, err := f.svc.Diagnose(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Language != BaseLanguage {
		t.Fatalf("language = %q", resp.Language)
	}
	if f.translator.calls != 0 {
		t.Fatal("translator must not be invoked after defaulting to the base language")
	}
}

func TestDiagnoseSeverityDefaultsToModerate(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.Diagnose(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Severity != SeverityModerate {
		t.Fatalf("severity = %q", resp.Severity)
	}
	if resp.ReplantingNeeded {
		t.Fatal("moderate severity must not require replanting")
	}
}

func TestDiagnoseSevereSeverityRequiresReplanting(t *testing.T) {
	f := newFixture()
	req := baseRequest()
	req.SeverityEstimate = SeveritySevere

	resp, err := f.svc.Diagnose(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.ReplantingNeeded {
		t.Fatal("severe severity must set replanting_needed")
	}
}

func TestDiagnoseLogsEventWithBaseLanguageText(t *testing.T) {
	f := newFixture()
	req := baseRequest()
	req.Language = "sw"
	req.CropType = CropMaize

	if _, err := f.svc.Diagnose(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sink.events) != 1 {
		t.Fatalf("expected one event, got %d", len(f.sink.events))
	}
	e := f.sink.events[0]
	if e.Diagnosis != fixedAdvisory {
		t.Fatal("event must carry the canonical base-language advisory")
	}
	if e.CropType != "maize" || e.Language != "sw" || e.Query != "why yellow?" {
		t.Fatalf("event = %+v", e)
	}
}

func TestDiagnoseAndSavePersistsRecord(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	resp, rec, err := f.svc.DiagnoseAndSave(context.Background(), userID, baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a saved record")
	}
	if len(f.repo.saved) != 1 {
		t.Fatalf("saved %d records", len(f.repo.saved))
	}
	if rec.UserID != userID || rec.DiagnosisText != resp.DiagnosisOriginal || rec.TranslatedText != resp.Diagnosis {
		t.Fatalf("record = %+v", rec)
	}
}

func TestDiagnoseAndSaveLedgerFailureIsSoft(t *testing.T) {
	f := newFixture()
	f.repo.saveErr = errors.New("db down")

	resp, rec, err := f.svc.DiagnoseAndSave(context.Background(), uuid.New(), baseRequest())
	if err != nil {
		t.Fatalf("ledger failure must not abort: %v", err)
	}
	if resp == nil || resp.Status != "success" {
		t.Fatal("response must still be delivered")
	}
	if rec != nil {
		t.Fatal("no record should be reported when the save failed")
	}
}

func TestDiagnoseAdvisorReceivesBaseLanguageContext(t *testing.T) {
	f := newFixture()
	req := baseRequest()
	req.Language = "sw"
	req.CropType = CropTomato
	req.AffectedArea = "25%"

	if _, err := f.svc.Diagnose(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ac := f.advisor.lastCtx
	if ac.CropType != CropTomato || ac.AffectedArea != "25%" || ac.Question != "why yellow?" {
		t.Fatalf("advice context = %+v", ac)
	}
	if len(ac.Tags) != 2 {
		t.Fatalf("tags = %#v", ac.Tags)
	}
	if ac.FarmerExperience != ExperienceIntermediate {
		t.Fatalf("experience should default to intermediate, got %q", ac.FarmerExperience)
	}
}
