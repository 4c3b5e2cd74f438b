package contract

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thu-intern/contract-generator/internal/models"
)

type fakeRenderer struct {
	path   string
	out    []byte
	err    error
	calls  int
	values map[string]string
}

func (f *fakeRenderer) Render(_ context.Context, values map[string]string) ([]byte, error) {
	f.calls++
	f.values = values
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func (f *fakeRenderer) TemplatePath() string { return f.path }

type fakeRecorder struct {
	mu      sync.Mutex
	records []*models.Generation
	err     error
}

func (f *fakeRecorder) Create(_ context.Context, gen *models.Generation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, gen)
	return f.err
}

type fakeArchiver struct {
	path string
	err  error
	docs []*Document
}

func (f *fakeArchiver) Archive(doc *Document) (string, error) {
	f.docs = append(f.docs, doc)
	return f.path, f.err
}

type observation struct {
	outcome string
	size    int
}

type fakeMetrics struct {
	observed []observation
}

func (f *fakeMetrics) ObserveGeneration(outcome string, _ time.Duration, sizeBytes int) {
	f.observed = append(f.observed, observation{outcome: outcome, size: sizeBytes})
}

type generatorFixture struct {
	renderer *fakeRenderer
	recorder *fakeRecorder
	archiver *fakeArchiver
	metrics  *fakeMetrics
	gen      *Generator
}

func newGeneratorFixture() *generatorFixture {
	f := &generatorFixture{
		renderer: &fakeRenderer{path: "templates/contract_template.docx", out: []byte("PK-docx")},
		recorder: &fakeRecorder{},
		archiver: &fakeArchiver{path: "output/2025-07-01/id_file.docx"},
		metrics:  &fakeMetrics{},
	}
	f.gen = NewGenerator(f.renderer, f.recorder, f.archiver, f.metrics, GeneratorConfig{}, zap.NewNop())
	return f
}

func TestGenerator_BuildAndRender_Success(t *testing.T) {
	f := newGeneratorFixture()

	doc, err := f.gen.BuildAndRender(context.Background(), baseForm())
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "東海大學實習合約_王小明_東海公司.docx", doc.FileName)
	assert.Equal(t, DocxContentType, doc.ContentType)
	assert.Equal(t, []byte("PK-docx"), doc.Bytes)
	assert.Equal(t, "output/2025-07-01/id_file.docx", doc.ArchivePath)

	assert.Equal(t, 1, f.renderer.calls)
	assert.Equal(t, "王小明", f.renderer.values[KeyStudentName])
	assert.Equal(t, "8.0", f.renderer.values[KeyDailyHours])

	require.Len(t, f.archiver.docs, 1)
	assert.Same(t, doc, f.archiver.docs[0])

	require.Len(t, f.recorder.records, 1)
	rec := f.recorder.records[0]
	assert.Equal(t, doc.ID, rec.ID)
	assert.Equal(t, models.OutcomeSuccess, rec.Outcome)
	assert.Equal(t, "東海公司", rec.CompanyName)
	assert.Equal(t, "王小明", rec.StudentName)
	assert.Equal(t, "learning", rec.ContractType)
	assert.Equal(t, doc.FileName, rec.FileName)
	assert.Equal(t, int64(len("PK-docx")), rec.SizeBytes)
	assert.Equal(t, doc.ArchivePath, rec.ArchivePath)
	assert.Empty(t, rec.ErrorMessage)

	assert.Equal(t, []observation{{outcome: models.OutcomeSuccess, size: len("PK-docx")}}, f.metrics.observed)
}

func TestGenerator_BuildAndRender_ValidationError(t *testing.T) {
	f := newGeneratorFixture()
	v := baseForm()
	v.Institution.Name = ""

	doc, err := f.gen.BuildAndRender(context.Background(), v)
	require.Error(t, err)
	assert.Nil(t, doc)

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, KindValidation, userErr.Kind)
	assert.Equal(t, MsgMissingRequired, userErr.Message)
	assert.Empty(t, userErr.Hint)
	assert.Equal(t, MsgMissingRequired, GetUserMessage(err))

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{FieldCompanyName}, validationErr.Fields)

	// no render is attempted
	assert.Zero(t, f.renderer.calls)
	assert.Empty(t, f.archiver.docs)

	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, models.OutcomeValidationError, f.recorder.records[0].Outcome)
	assert.Contains(t, f.recorder.records[0].ErrorMessage, FieldCompanyName)
	assert.Equal(t, []observation{{outcome: models.OutcomeValidationError}}, f.metrics.observed)
}

func TestGenerator_BuildAndRender_TemplateError(t *testing.T) {
	f := newGeneratorFixture()
	f.renderer.err = errors.New("template file not found")

	doc, err := f.gen.BuildAndRender(context.Background(), baseForm())
	require.Error(t, err)
	assert.Nil(t, doc)

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, KindTemplate, userErr.Kind)
	assert.Equal(t, "發生錯誤：template file not found", userErr.Message)
	assert.Equal(t, "請確認範本檔 templates/contract_template.docx 是否存在。", userErr.Hint)

	var templateErr *TemplateError
	require.ErrorAs(t, err, &templateErr)
	assert.Equal(t, "templates/contract_template.docx", templateErr.TemplatePath)
	assert.ErrorIs(t, err, f.renderer.err)

	assert.Empty(t, f.archiver.docs)
	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, models.OutcomeTemplateError, f.recorder.records[0].Outcome)
	assert.Equal(t, "template file not found", f.recorder.records[0].ErrorMessage)
}

func TestGenerator_BuildAndRender_ResubmitAfterFailure(t *testing.T) {
	f := newGeneratorFixture()
	f.renderer.err = errors.New("template file not found")

	_, err := f.gen.BuildAndRender(context.Background(), baseForm())
	require.Error(t, err)

	// template restored; the same form values go through
	f.renderer.err = nil
	doc, err := f.gen.BuildAndRender(context.Background(), baseForm())
	require.NoError(t, err)
	assert.NotNil(t, doc)

	require.Len(t, f.recorder.records, 2)
	assert.NotEqual(t, f.recorder.records[0].ID, f.recorder.records[1].ID)
}

func TestGenerator_BuildAndRender_SideEffectFailuresDoNotFail(t *testing.T) {
	f := newGeneratorFixture()
	f.archiver.err = errors.New("disk full")
	f.recorder.err = errors.New("database is locked")

	doc, err := f.gen.BuildAndRender(context.Background(), baseForm())
	require.NoError(t, err)
	assert.Empty(t, doc.ArchivePath)

	require.Len(t, f.recorder.records, 1)
	assert.Empty(t, f.recorder.records[0].ArchivePath)
}

func TestGenerator_BuildAndRender_OptionalDependencies(t *testing.T) {
	renderer := &fakeRenderer{path: "t.docx", out: []byte("doc")}
	gen := NewGenerator(renderer, nil, nil, nil, GeneratorConfig{FileNamePrefix: "合約"}, zap.NewNop())

	v := baseForm()
	v.Institution.Name = "A/B 公司"
	doc, err := gen.BuildAndRender(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, "合約_王小明_AB 公司.docx", doc.FileName)

	_, err = NewGenerator(nil, nil, nil, nil, GeneratorConfig{}, zap.NewNop()).BuildAndRender(context.Background(), baseForm())
	assert.ErrorIs(t, err, ErrRendererMissing)
}

func TestGenerator_Preview(t *testing.T) {
	f := newGeneratorFixture()

	rc, err := f.gen.Preview(baseForm())
	require.NoError(t, err)
	assert.Equal(t, "東海公司", rc[KeyCompanyName])
	assert.Zero(t, f.renderer.calls)
	assert.Empty(t, f.recorder.records)

	v := baseForm()
	v.Students = nil
	_, err = f.gen.Preview(v)
	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, KindValidation, userErr.Kind)
}

func TestGetUserMessage(t *testing.T) {
	assert.Equal(t, "", GetUserMessage(nil))
	assert.Equal(t, "boom", GetUserMessage(errors.New("boom")))

	wrapped := &UserError{Kind: KindTemplate, Message: "發生錯誤：x", Err: errors.New("x")}
	assert.Equal(t, "發生錯誤：x", GetUserMessage(wrapped))
	assert.Equal(t, "發生錯誤：x: x", wrapped.Error())
}
