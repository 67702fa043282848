package comment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/cliptube/internal/model"
	"github.com/hitoshi/cliptube/internal/pipeline"
)

type mockCommentRepo struct {
	findByIDFunc      func(ctx context.Context, id string) (*model.Comment, error)
	createFunc        func(ctx context.Context, comment *model.Comment) error
	updateFunc        func(ctx context.Context, comment *model.Comment) error
	deleteFunc        func(ctx context.Context, id string) error
	queryWithMetaFunc func(ctx context.Context, p *pipeline.Pipeline) ([]model.CommentWithMeta, error)
}

func (m *mockCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	return m.createFunc(ctx, comment)
}

func (m *mockCommentRepo) Update(ctx context.Context, comment *model.Comment) error {
	return m.updateFunc(ctx, comment)
}

func (m *mockCommentRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockCommentRepo) QueryWithMeta(ctx context.Context, p *pipeline.Pipeline) ([]model.CommentWithMeta, error) {
	return m.queryWithMetaFunc(ctx, p)
}

type mockVideoRepo struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Video, error)
}

func (m *mockVideoRepo) FindByID(ctx context.Context, id string) (*model.Video, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockVideoRepo) Create(ctx context.Context, video *model.Video) error { return nil }
func (m *mockVideoRepo) Update(ctx context.Context, video *model.Video) error { return nil }
func (m *mockVideoRepo) Delete(ctx context.Context, id string) error          { return nil }
func (m *mockVideoRepo) SetPublished(ctx context.Context, id string, published bool) error {
	return nil
}
func (m *mockVideoRepo) IncrementViews(ctx context.Context, id string) error { return nil }
func (m *mockVideoRepo) QueryWithOwner(ctx context.Context, p *pipeline.Pipeline) ([]model.VideoWithOwner, error) {
	return nil, nil
}
func (m *mockVideoRepo) QueryDetail(ctx context.Context, p *pipeline.Pipeline) (*model.VideoDetail, error) {
	return nil, nil
}

type mockSanitizer struct {
	sanitizeFunc func(content string) string
}

func (m *mockSanitizer) Sanitize(content string) string {
	return m.sanitizeFunc(content)
}

const (
	testViewerID  = "11111111-1111-1111-1111-111111111111"
	testVideoID   = "22222222-2222-2222-2222-222222222222"
	testCommentID = "33333333-3333-3333-3333-333333333333"
	testOtherID   = "44444444-4444-4444-4444-444444444444"
)

func passthroughSanitizer() *mockSanitizer {
	return &mockSanitizer{sanitizeFunc: func(content string) string { return content }}
}

func TestService_Add_CreatesSanitizedComment(t *testing.T) {
	var created *model.Comment
	commentRepo := &mockCommentRepo{
		createFunc: func(ctx context.Context, comment *model.Comment) error {
			created = comment
			return nil
		},
	}
	videoRepo := &mockVideoRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Video, error) {
			return &model.Video{ID: id}, nil
		},
	}
	sanitizer := &mockSanitizer{sanitizeFunc: func(content string) string {
		return strings.ReplaceAll(content, "<script>", "")
	}}

	svc := NewService(commentRepo, videoRepo, sanitizer)
	comment, err := svc.Add(context.Background(), testViewerID, testVideoID, "面白い動画<script>")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if created == nil {
		t.Fatal("コメントが作成されていない")
	}
	if comment.Content != "面白い動画" {
		t.Errorf("Content = %q, want %q", comment.Content, "面白い動画")
	}
	if comment.VideoID != testVideoID {
		t.Errorf("VideoID = %q, want %q", comment.VideoID, testVideoID)
	}
	if comment.OwnerID != testViewerID {
		t.Errorf("OwnerID = %q, want %q", comment.OwnerID, testViewerID)
	}
	if comment.ID == "" {
		t.Error("IDが採番されていない")
	}
}

func TestService_Add_VideoNotFound(t *testing.T) {
	videoRepo := &mockVideoRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Video, error) {
			return nil, nil
		},
	}

	svc := NewService(&mockCommentRepo{}, videoRepo, passthroughSanitizer())
	_, err := svc.Add(context.Background(), testViewerID, testVideoID, "コメント")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "VIDEO_NOT_FOUND" {
		t.Errorf("err = %v, want VIDEO_NOT_FOUND", err)
	}
}

func TestService_Add_EmptyContent(t *testing.T) {
	svc := NewService(&mockCommentRepo{}, &mockVideoRepo{}, passthroughSanitizer())
	_, err := svc.Add(context.Background(), testViewerID, testVideoID, "   ")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "INVALID_TITLE" {
		t.Errorf("err = %v, want INVALID_TITLE", err)
	}
}

func TestService_List_BuildsCommentPipeline(t *testing.T) {
	var gotSQL string
	var gotArgs []interface{}
	commentRepo := &mockCommentRepo{
		queryWithMetaFunc: func(ctx context.Context, p *pipeline.Pipeline) ([]model.CommentWithMeta, error) {
			sql, args, err := p.Compile()
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			gotSQL = sql
			gotArgs = args
			return []model.CommentWithMeta{}, nil
		},
	}

	svc := NewService(commentRepo, &mockVideoRepo{}, passthroughSanitizer())
	if _, err := svc.List(context.Background(), testVideoID, testViewerID, 1, 20); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	for _, want := range []string{
		"FROM comments c",
		"JOIN users u ON u.id = c.owner_id",
		"(SELECT COUNT(*) FROM likes WHERE likes.comment_id = c.id) AS likes_count",
		"AS is_liked",
		"ORDER BY c.created_at DESC, c.id ASC",
	} {
		if !strings.Contains(gotSQL, want) {
			t.Errorf("SQLに %q が含まれていない: %s", want, gotSQL)
		}
	}
	// 導出フィールドの引数が先、スコープ条件の引数が後にバインドされる。
	if len(gotArgs) != 4 {
		t.Fatalf("args = %v, want 4個", gotArgs)
	}
	if gotArgs[0] != testViewerID {
		t.Errorf("args[0] = %v, want %q", gotArgs[0], testViewerID)
	}
	if gotArgs[1] != testVideoID {
		t.Errorf("args[1] = %v, want %q", gotArgs[1], testVideoID)
	}
}

func TestService_List_AnonymousViewer(t *testing.T) {
	var gotSQL string
	commentRepo := &mockCommentRepo{
		queryWithMetaFunc: func(ctx context.Context, p *pipeline.Pipeline) ([]model.CommentWithMeta, error) {
			sql, _, err := p.Compile()
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			gotSQL = sql
			return nil, nil
		},
	}

	svc := NewService(commentRepo, &mockVideoRepo{}, passthroughSanitizer())
	if _, err := svc.List(context.Background(), testVideoID, "", 1, 20); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if !strings.Contains(gotSQL, "FALSE AS is_liked") {
		t.Errorf("匿名視聴者のis_likedが定数FALSEになっていない: %s", gotSQL)
	}
}

func TestService_Update_OwnerOnly(t *testing.T) {
	commentRepo := &mockCommentRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Comment, error) {
			return &model.Comment{ID: id, OwnerID: testOtherID}, nil
		},
	}

	svc := NewService(commentRepo, &mockVideoRepo{}, passthroughSanitizer())
	_, err := svc.Update(context.Background(), testViewerID, testCommentID, "書き換え")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "FORBIDDEN" {
		t.Errorf("err = %v, want FORBIDDEN", err)
	}
}

func TestService_Update_SanitizesContent(t *testing.T) {
	var updated *model.Comment
	commentRepo := &mockCommentRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Comment, error) {
			return &model.Comment{ID: id, OwnerID: testViewerID, Content: "旧本文"}, nil
		},
		updateFunc: func(ctx context.Context, comment *model.Comment) error {
			updated = comment
			return nil
		},
	}
	sanitizer := &mockSanitizer{sanitizeFunc: func(content string) string {
		return "サニタイズ済み:" + content
	}}

	svc := NewService(commentRepo, &mockVideoRepo{}, sanitizer)
	comment, err := svc.Update(context.Background(), testViewerID, testCommentID, " 新本文 ")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated == nil {
		t.Fatal("更新が呼ばれていない")
	}
	if comment.Content != "サニタイズ済み:新本文" {
		t.Errorf("Content = %q", comment.Content)
	}
}

func TestService_Delete_CommentNotFound(t *testing.T) {
	commentRepo := &mockCommentRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Comment, error) {
			return nil, nil
		},
	}

	svc := NewService(commentRepo, &mockVideoRepo{}, passthroughSanitizer())
	err := svc.Delete(context.Background(), testViewerID, testCommentID)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "COMMENT_NOT_FOUND" {
		t.Errorf("err = %v, want COMMENT_NOT_FOUND", err)
	}
}

func TestService_Delete_Owner(t *testing.T) {
	deleted := false
	commentRepo := &mockCommentRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Comment, error) {
			return &model.Comment{ID: id, OwnerID: testViewerID}, nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}

	svc := NewService(commentRepo, &mockVideoRepo{}, passthroughSanitizer())
	if err := svc.Delete(context.Background(), testViewerID, testCommentID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Error("削除が呼ばれていない")
	}
}
