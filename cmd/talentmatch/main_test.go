package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/config"
	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/document"
	"github.com/kailas-cloud/talentmatch/internal/usecase/scorer"
)

func testConfig() config.Config {
	cfg := config.Config{
		HTTP:    config.HTTPConfig{Port: 8080},
		Encoder: config.EncoderConfig{Dimensions: 64, Seed: "test"},
		Scorer:  config.ScorerConfig{Hidden: 8, Seed: 7},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestBuild_HashingWithoutGenerator(t *testing.T) {
	ctx := context.Background()
	app, err := build(ctx, testConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Close()

	if app.services.Feedback != nil {
		t.Error("feedback should be disabled without a generator")
	}
	if app.services.Interview != nil {
		t.Error("interview coach should be disabled without a generator")
	}

	doc, err := document.New("c1", "Go developer with Kubernetes experience")
	if err != nil {
		t.Fatal(err)
	}
	report, err := app.services.Indexer.Index(ctx, []document.Document{doc})
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if report.Indexed != 1 {
		t.Errorf("expected 1 indexed, got %d", report.Indexed)
	}

	res, err := app.services.Encoder.Encode(ctx, "Kubernetes Go developer")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	found, err := app.services.Index.Search(ctx, res.Embedding, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].SourceID() != "c1" {
		t.Errorf("unexpected results: %+v", found)
	}

	score, err := app.services.Scorer.Score(ctx, scorer.Text("Go developer"), scorer.Text("Go engineer wanted"))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score <= 0 || score >= 1 {
		t.Errorf("score out of (0,1): %g", score)
	}

	if health := app.services.Health.Check(ctx); health.Status != "ok" {
		t.Errorf("expected healthy, got %+v", health)
	}
}

func TestBuild_FeedbackPipeline(t *testing.T) {
	cfg := testConfig()
	cfg.Generation = config.GenerationConfig{
		Provider: config.GenerationOpenAI,
		BaseURL:  "http://127.0.0.1:1/v1",
		Model:    "test-model",
	}
	cfg.NER.Enabled = true
	cfg.Cache.Driver = config.CacheNone
	cfg.ApplyDefaults()

	app, err := build(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Close()

	if app.services.Feedback == nil {
		t.Fatal("feedback should be configured")
	}
	if app.services.Interview == nil {
		t.Fatal("interview coach should be configured")
	}
}

func TestBuild_InvalidScorerWeights(t *testing.T) {
	cfg := testConfig()
	cfg.Scorer.WeightsPath = filepath.Join(t.TempDir(), "missing.json")

	if _, err := build(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing weights file")
	}
}

func writeWeights(t *testing.T, w scorer.Weights) string {
	t.Helper()
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "weights.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuild_ScorerWeightsDimension(t *testing.T) {
	t.Run("mismatch", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scorer.WeightsPath = writeWeights(t, scorer.InitWeights(32, 4, 1))

		_, err := build(context.Background(), cfg, zap.NewNop())
		if !errors.Is(err, domain.ErrShapeMismatch) {
			t.Fatalf("expected ErrShapeMismatch for 32-dim weights on a 64-dim encoder, got %v", err)
		}
	})

	t.Run("match", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scorer.WeightsPath = writeWeights(t, scorer.InitWeights(64, 4, 1))

		app, err := build(context.Background(), cfg, zap.NewNop())
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		defer app.Close()
	})
}

func TestBuildExtractor_CustomPhrases(t *testing.T) {
	ex, err := buildExtractor(config.NERConfig{Enabled: true, Skills: []string{"Terraform"}})
	if err != nil {
		t.Fatalf("buildExtractor: %v", err)
	}
	ents, err := ex.Extract(context.Background(), "Terraform and CKA")
	if err != nil {
		t.Fatal(err)
	}
	if len(ents.Skills) != 1 || ents.Skills[0] != "Terraform" {
		t.Errorf("unexpected skills: %v", ents.Skills)
	}
	if len(ents.Certifications) != 1 {
		t.Errorf("default certifications should apply, got %v", ents.Certifications)
	}
}

func TestRunLoss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batches.json")
	data := `{"batches": [
		{"queries": [[1, 0], [0, 1]], "keys": [[1, 0], [0, 1]]},
		{"queries": [[1, 0], [0, 1]], "keys": [[0, 1], [1, 0]], "positives": {"0": 1, "1": 0}}
	]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	lossFile, lossTemperature, lossWorkers = path, 0.07, 2
	t.Cleanup(func() { lossFile = "-" })

	var out bytes.Buffer
	if err := runLoss(context.Background(), strings.NewReader(""), &out); err != nil {
		t.Fatalf("runLoss: %v", err)
	}

	var got lossOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(got.Losses) != 2 {
		t.Fatalf("expected 2 losses, got %v", got.Losses)
	}
	for i, l := range got.Losses {
		if l < 0 || l > 0.01 {
			t.Errorf("batch %d: aligned pairs should give near-zero loss, got %g", i, l)
		}
	}
}

func TestRunLoss_Stdin(t *testing.T) {
	lossFile, lossTemperature, lossWorkers = "-", 0.07, 1

	var out bytes.Buffer
	err := runLoss(context.Background(), strings.NewReader(`{"batches": []}`), &out)
	if err == nil {
		t.Fatal("expected error for empty input")
	}

	err = runLoss(context.Background(), strings.NewReader(`{"batches": [{"queries": [[1]], "keys": [[1, 0]]}]}`), &out)
	if err == nil {
		t.Fatal("expected shape error")
	}
}
