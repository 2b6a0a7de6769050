package project

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/modules/storage/upload"
	"github.com/folio-space/core/internal/pkg/events"
	"github.com/folio-space/core/internal/pkg/testutil"
)

// memRepo ignores ListFilter.ActiveOnly so the service filter is exercised.
type memRepo struct {
	projects map[string]*models.ProjectModel
	images   []models.ProjectImageModel
	seq      int
}

func newMemRepo(ps ...models.ProjectModel) *memRepo {
	r := &memRepo{projects: map[string]*models.ProjectModel{}}
	for i := range ps {
		p := ps[i]
		r.projects[p.ID] = &p
	}
	return r
}

func (r *memRepo) List(_ context.Context, _ ListFilter) ([]models.ProjectModel, error) {
	out := make([]models.ProjectModel, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (r *memRepo) Get(_ context.Context, id string, _ bool) (*models.ProjectModel, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) Create(_ context.Context, p *models.ProjectModel) error {
	r.seq++
	p.ID = fmt.Sprintf("p%d", r.seq)
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *memRepo) Update(_ context.Context, id string, updates map[string]any) error {
	p, ok := r.projects[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "title":
			p.Title = v.(string)
		case "is_active":
			p.IsActive = v.(bool)
		case "technologies":
			p.Technologies = v.(string)
		}
	}
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.projects[id]; !ok {
		return ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *memRepo) Count(_ context.Context, activeOnly bool) (int64, error) {
	var n int64
	for _, p := range r.projects {
		if !activeOnly || p.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) NextDisplayOrder(ctx context.Context) (int, error) {
	n, _ := r.Count(ctx, false)
	return int(n) + 1, nil
}

func (r *memRepo) Reorder(_ context.Context, ids []string) error {
	for i, id := range ids {
		if p, ok := r.projects[id]; ok {
			p.DisplayOrder = i + 1
		}
	}
	return nil
}

func (r *memRepo) ListImages(_ context.Context, projectID string) ([]models.ProjectImageModel, error) {
	var out []models.ProjectImageModel
	for _, img := range r.images {
		if img.ProjectID == projectID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (r *memRepo) AddImages(_ context.Context, images []models.ProjectImageModel) error {
	r.images = append(r.images, images...)
	return nil
}

func (r *memRepo) DeleteImage(context.Context, string, string) error { return ErrNotFound }

func project(id string, order int, active bool) models.ProjectModel {
	return models.ProjectModel{
		Base:         models.Base{ID: id},
		Title:        "Projeto " + id,
		Description:  "desc",
		Learnings:    "muito",
		Technologies: "Go",
		DisplayOrder: order,
		IsActive:     active,
	}
}

func validDTO() *CreateProjectDTO {
	return &CreateProjectDTO{
		Title:        " Loja ",
		Description:  "E-commerce",
		Learnings:    "Cache",
		Technologies: "Go, ,React ,",
	}
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	svc := NewService(newMemRepo(), &testutil.Notifier{})
	for _, field := range []string{"title", "description", "learnings", "technologies"} {
		t.Run(field, func(t *testing.T) {
			dto := validDTO()
			switch field {
			case "title":
				dto.Title = "  "
			case "description":
				dto.Description = ""
			case "learnings":
				dto.Learnings = ""
			case "technologies":
				dto.Technologies = " , "
			}
			_, err := svc.Create(context.Background(), dto)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, field, verr.Field)
		})
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	notify := &testutil.Notifier{}
	repo := newMemRepo(project("a", 1, true), project("b", 2, false))
	svc := NewService(repo, notify)

	p, err := svc.Create(context.Background(), validDTO())
	require.NoError(t, err)
	assert.Equal(t, "Loja", p.Title)
	assert.Equal(t, 3, p.DisplayOrder)
	assert.True(t, p.IsActive)
	assert.Equal(t, "Go, React", p.Technologies)
	assert.Equal(t, []string{"Go", "React"}, p.Tags())

	evs := notify.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.ChangeEvent{Table: events.TableProjects, Type: events.Insert, ID: p.ID}, evs[0])
}

func TestCreateKeepsExplicitInactive(t *testing.T) {
	svc := NewService(newMemRepo(), &testutil.Notifier{})
	dto := validDTO()
	off, order := false, 9
	dto.IsActive, dto.DisplayOrder = &off, &order

	p, err := svc.Create(context.Background(), dto)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
	assert.Equal(t, 9, p.DisplayOrder)
}

func TestListActiveNeverReturnsInactive(t *testing.T) {
	svc := NewService(newMemRepo(project("a", 2, true), project("b", 1, false), project("c", 3, true)), &testutil.Notifier{})
	items, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, p := range items {
		assert.True(t, p.IsActive, p.ID)
	}
	assert.Equal(t, "a", items[0].ID)
}

func TestGetActiveOnlyHidesInactive(t *testing.T) {
	svc := NewService(newMemRepo(project("b", 1, false)), &testutil.Notifier{})
	_, err := svc.Get(context.Background(), "b", true)
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := svc.Get(context.Background(), "b", false)
	require.NoError(t, err)
	assert.Equal(t, "b", p.ID)
}

func TestUpdateRejectsBlankRequiredField(t *testing.T) {
	notify := &testutil.Notifier{}
	svc := NewService(newMemRepo(project("a", 1, true)), notify)
	blank := " "
	_, err := svc.Update(context.Background(), "a", &UpdateProjectDTO{Title: &blank})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, notify.Events())

	title := "Novo"
	p, err := svc.Update(context.Background(), "a", &UpdateProjectDTO{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Novo", p.Title)
	assert.Len(t, notify.Events(), 1)
}

func TestAddImagesContinuesOrder(t *testing.T) {
	repo := newMemRepo(project("a", 1, true))
	repo.images = []models.ProjectImageModel{{ProjectID: "a", URL: "u1", DisplayOrder: 4}}
	svc := NewService(repo, &testutil.Notifier{})

	images, err := svc.AddImages(context.Background(), "a", []ImageInput{{URL: "u2"}, {URL: " "}, {URL: "u3", Caption: "c"}})
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, 5, images[0].DisplayOrder)
	assert.Equal(t, 6, images[1].DisplayOrder)

	_, err = svc.AddImages(context.Background(), "missing", []ImageInput{{URL: "x"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeUploader struct{ seen int }

func (f *fakeUploader) ProcessBatch(_ context.Context, files []upload.FileInput, _ upload.Options) upload.BatchResult {
	f.seen += len(files)
	var res upload.BatchResult
	for _, file := range files {
		res.Items = append(res.Items, upload.ItemResult{Name: file.Name, Result: &upload.Result{URL: "https://cdn.test/" + file.Name}})
		res.Uploaded++
	}
	return res
}

func (f *fakeUploader) MaxBytes() int64 { return 1 << 20 }

func newRouter(svc *Service, up Uploader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, up).RegisterRoutes(r.Group("/api/v1"), func(c *gin.Context) { c.Next() })
	return r
}

func TestPublicHandlers(t *testing.T) {
	svc := NewService(newMemRepo(project("a", 1, true), project("b", 2, false)), &testutil.Notifier{})
	r := newRouter(svc, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []struct {
			ID   string   `json:"id"`
			Tags []string `json:"tags"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "a", body.Data[0].ID)
	assert.Equal(t, []string{"Go"}, body.Data[0].Tags)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects/b", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/projects/b", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateHandlerValidation(t *testing.T) {
	r := newRouter(NewService(newMemRepo(), &testutil.Notifier{}), nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/projects", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Informe a descrição do projeto")
}

func TestAddImagesHandlerJSON(t *testing.T) {
	repo := newMemRepo(project("a", 1, true))
	r := newRouter(NewService(repo, &testutil.Notifier{}), &fakeUploader{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/projects/a/images",
		bytes.NewBufferString(`[{"url":"https://x/1.jpg","caption":"capa"}]`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, repo.images, 1)
	assert.Equal(t, "capa", repo.images[0].Caption)
}

func galleryUpload(t *testing.T, path string, names ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("img"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestAddImagesUnknownProjectUploadsNothing(t *testing.T) {
	up := &fakeUploader{}
	r := newRouter(NewService(newMemRepo(), &testutil.Notifier{}), up)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, galleryUpload(t, "/api/v1/admin/projects/missing/images", "a.png"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, up.seen)
}

func TestAddImagesHandlerMultipart(t *testing.T) {
	repo := newMemRepo(project("a", 1, true))
	up := &fakeUploader{}
	r := newRouter(NewService(repo, &testutil.Notifier{}), up)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, galleryUpload(t, "/api/v1/admin/projects/a/images", "a.png", "b.png"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 2, up.seen)
	require.Len(t, repo.images, 2)
	assert.Equal(t, "https://cdn.test/a.png", repo.images[0].URL)
}

func TestRepositoryListActive(t *testing.T) {
	db, mock := testutil.MockDB(t)
	rows := sqlmock.NewRows([]string{"id", "title", "is_active", "display_order"}).
		AddRow("a", "A", true, 1)
	mock.ExpectQuery("SELECT \\* FROM `projects` WHERE is_active = \\?").
		WithArgs(true).
		WillReturnRows(rows)

	items, err := NewRepository(db).List(context.Background(), ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsActive)
}

func TestRepositoryNextDisplayOrder(t *testing.T) {
	db, mock := testutil.MockDB(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `projects`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	next, err := NewRepository(db).NextDisplayOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, next)
}

func TestRepositoryUpdateMissing(t *testing.T) {
	db, mock := testutil.MockDB(t)
	mock.ExpectExec("UPDATE `projects` SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewRepository(db).Update(context.Background(), "missing", map[string]any{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryDeleteRemovesGallery(t *testing.T) {
	db, mock := testutil.MockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `projects` SET `deleted_at`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `project_images` SET `deleted_at`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, NewRepository(db).Delete(context.Background(), "a"))
}

func TestRepositoryReorder(t *testing.T) {
	db, mock := testutil.MockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `projects` SET `display_order`=\\?").
		WithArgs(1, sqlmock.AnyArg(), "b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `projects` SET `display_order`=\\?").
		WithArgs(2, sqlmock.AnyArg(), "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewRepository(db).Reorder(context.Background(), []string{"b", "a"}))
}
