package tasks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rhuss/tasktrack/pkg/auth"
	"github.com/rhuss/tasktrack/pkg/storage"
	"github.com/rhuss/tasktrack/pkg/storage/memory"
	"github.com/rhuss/tasktrack/pkg/tasks"
	"github.com/rhuss/tasktrack/pkg/users"
	"github.com/rhuss/tasktrack/pkg/validation"
)

type fixture struct {
	svc   *tasks.Service
	store *memory.Store
	admin auth.Principal
	alice auth.Principal
	bob   auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	mk := func(email string, role auth.Role) auth.Principal {
		u := &users.User{Email: email, PasswordHash: "x", Role: role}
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("creating %s: %v", email, err)
		}
		return u.Principal()
	}

	return &fixture{
		svc:   tasks.NewService(store, store, nil),
		store: store,
		admin: mk("admin@demo.com", auth.RoleAdmin),
		alice: mk("alice@demo.com", auth.RoleUser),
		bob:   mk("bob@demo.com", auth.RoleUser),
	}
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) create(t *testing.T, p auth.Principal, in tasks.CreateInput) *tasks.Task {
	t.Helper()
	task, err := f.svc.Create(context.Background(), p, in)
	if err != nil {
		t.Fatalf("Create(%q): %v", in.Title, err)
	}
	return task
}

func (f *fixture) total(t *testing.T, p auth.Principal, q tasks.ListQuery) int64 {
	t.Helper()
	page, err := f.svc.List(context.Background(), p, q)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return page.TotalElements
}

func TestCreate_UserOwnerIsForcedToSelf(t *testing.T) {
	f := newFixture(t)

	task := f.create(t, f.alice, tasks.CreateInput{Title: "mine", UserID: ptr(f.bob.UserID)})
	if task.UserID != f.alice.UserID {
		t.Errorf("UserID = %d, want %d", task.UserID, f.alice.UserID)
	}
	if task.Completed {
		t.Error("new task is completed")
	}
}

func TestCreate_AdminTargetsOwner(t *testing.T) {
	f := newFixture(t)

	if task := f.create(t, f.admin, tasks.CreateInput{Title: "for bob", UserID: ptr(f.bob.UserID)}); task.UserID != f.bob.UserID {
		t.Errorf("targeted UserID = %d, want %d", task.UserID, f.bob.UserID)
	}
	if own := f.create(t, f.admin, tasks.CreateInput{Title: "for me"}); own.UserID != f.admin.UserID {
		t.Errorf("default UserID = %d, want %d", own.UserID, f.admin.UserID)
	}
}

func TestCreate_AdminUnknownOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.admin, tasks.CreateInput{Title: "x", UserID: ptr(int64(999))})
	if !errors.Is(err, tasks.ErrOwnerNotFound) {
		t.Errorf("err = %v, want ErrOwnerNotFound", err)
	}
}

func TestCreate_BlankTitle(t *testing.T) {
	f := newFixture(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := f.svc.Create(context.Background(), f.alice, tasks.CreateInput{Title: title})

		var verr *validation.Error
		if !errors.As(err, &verr) {
			t.Fatalf("title %q: err = %v, want *validation.Error", title, err)
		}
		if _, ok := verr.Fields["title"]; !ok {
			t.Errorf("title %q: fields = %v, want title", title, verr.Fields)
		}
	}
}

func TestGet_OwnershipSurfacesAsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := f.create(t, f.alice, tasks.CreateInput{Title: "private"})

	if _, err := f.svc.Get(ctx, f.bob, task.ID); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("foreign task err = %v, want ErrNotFound", err)
	}
	// Missing and forbidden look the same.
	if _, err := f.svc.Get(ctx, f.bob, 12345); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("missing task err = %v, want ErrNotFound", err)
	}

	got, err := f.svc.Get(ctx, f.alice, task.ID)
	if err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if got.Title != "private" {
		t.Errorf("Title = %q, want private", got.Title)
	}

	got, err = f.svc.Get(ctx, f.admin, task.ID)
	if err != nil {
		t.Fatalf("admin Get: %v", err)
	}
	if got.ID != task.ID {
		t.Errorf("ID = %d, want %d", got.ID, task.ID)
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := f.create(t, f.alice, tasks.CreateInput{Title: "draft"})

	updated, err := f.svc.Update(ctx, f.alice, task.ID, tasks.UpdateInput{Completed: ptr(true)})
	if err != nil {
		t.Fatalf("Update completed: %v", err)
	}
	if !updated.Completed || updated.Title != "draft" {
		t.Errorf("after completing = %+v, want completed draft", updated)
	}

	updated, err = f.svc.Update(ctx, f.alice, task.ID, tasks.UpdateInput{Title: ptr("final")})
	if err != nil {
		t.Fatalf("Update title: %v", err)
	}
	if updated.Title != "final" || !updated.Completed {
		t.Errorf("after retitling = %+v, want completed final", updated)
	}

	_, err = f.svc.Update(ctx, f.alice, task.ID, tasks.UpdateInput{Title: ptr("  ")})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Errorf("blank title err = %v, want *validation.Error", err)
	}

	_, err = f.svc.Update(ctx, f.bob, task.ID, tasks.UpdateInput{Completed: ptr(false)})
	if !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("foreign update err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := f.create(t, f.alice, tasks.CreateInput{Title: "temp"})

	if err := f.svc.Delete(ctx, f.bob, task.ID); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("foreign delete err = %v, want ErrNotFound", err)
	}
	if err := f.svc.Delete(ctx, f.admin, task.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if err := f.svc.Delete(ctx, f.alice, task.ID); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestList_PolicyNarrowing(t *testing.T) {
	f := newFixture(t)

	for _, p := range []auth.Principal{f.alice, f.alice, f.bob, f.admin} {
		f.create(t, p, tasks.CreateInput{Title: "t"})
	}

	if got := f.total(t, f.admin, tasks.ListQuery{}); got != 4 {
		t.Errorf("admin total = %d, want 4", got)
	}
	if got := f.total(t, f.admin, tasks.ListQuery{OwnerID: ptr(f.alice.UserID)}); got != 2 {
		t.Errorf("admin filtered total = %d, want 2", got)
	}

	// A user's owner filter is ignored.
	page, err := f.svc.List(context.Background(), f.bob, tasks.ListQuery{OwnerID: ptr(f.alice.UserID)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalElements != 1 {
		t.Errorf("bob total = %d, want 1", page.TotalElements)
	}
	for _, task := range page.Content {
		if task.UserID != f.bob.UserID {
			t.Errorf("bob sees task of user %d", task.UserID)
		}
	}
}

func TestList_CompletedFilterAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		task := f.create(t, f.alice, tasks.CreateInput{Title: "t"})
		if i == 0 {
			if _, err := f.svc.Update(ctx, f.alice, task.ID, tasks.UpdateInput{Completed: ptr(true)}); err != nil {
				t.Fatalf("Update: %v", err)
			}
		}
	}

	if got := f.total(t, f.alice, tasks.ListQuery{Completed: ptr(false)}); got != 2 {
		t.Errorf("open tasks = %d, want 2", got)
	}

	page, err := f.svc.List(ctx, f.alice, tasks.ListQuery{Page: storage.PageRequest{Size: 1000}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Size != storage.MaxPageSize {
		t.Errorf("Size = %d, want %d", page.Size, storage.MaxPageSize)
	}
}
