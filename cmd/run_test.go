package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/marcus/appman/internal/hostclient"
	"github.com/marcus/appman/internal/models"
	"github.com/marcus/appman/internal/output"
	"github.com/marcus/appman/internal/workflow"
)

type fakeHost struct {
	detail   *models.AppDetail
	topics   []string
	topicErr error
}

func (h *fakeHost) AppDetail(ctx context.Context, name string) (*models.AppDetail, error) {
	if h.detail == nil {
		return nil, hostclient.ErrNotFound
	}
	return h.detail, nil
}

func (h *fakeHost) ListTopics(ctx context.Context, webname string) ([]string, error) {
	return h.topics, h.topicErr
}

func entry(name string, d models.ActionDescriptor) models.ActionEntry {
	raw, _ := json.Marshal(d)
	return models.ActionEntry{Name: name, Descriptor: &d, Raw: raw}
}

func wikiHost(installed bool) *fakeHost {
	return &fakeHost{
		detail: &models.AppDetail{
			Name: "wiki",
			Actions: []models.ActionEntry{
				entry("install", models.ActionDescriptor{
					Installed: installed, DefaultDestination: "Sandbox", AllowsCopy: true, AllowsLink: true,
				}),
				entry("uninstall", models.ActionDescriptor{Installed: installed}),
				{Name: "reindex", Toggle: true},
			},
		},
		topics: []string{"WebHome", "WebPreferences", "WebNotify"},
	}
}

func TestPrepareRun(t *testing.T) {
	tests := []struct {
		name      string
		installed bool
		action    string
		opts      runOptions
		want      models.ActionRequest
		wantErr   error
	}{
		{
			name:   "install defaults",
			action: "install",
			want: models.ActionRequest{App: "wiki", Action: "install", Type: models.TransferMove,
				Destination: "Sandbox", CopyList: []string{}, LinkList: []string{}},
		},
		{
			name:   "install copy to other web",
			action: "install",
			opts:   runOptions{Type: "copy", Destination: " Main ", DestSet: true},
			want: models.ActionRequest{App: "wiki", Action: "install", Type: models.TransferCopy,
				Destination: "Main", CopyList: []string{}, LinkList: []string{}},
		},
		{
			name:    "blank destination",
			action:  "install",
			opts:    runOptions{Destination: "  ", DestSet: true},
			wantErr: workflow.ErrMissingDestination,
		},
		{
			name:    "partial link without source",
			action:  "install",
			opts:    runOptions{Type: "linkpartial"},
			wantErr: workflow.ErrMissingSource,
		},
		{
			name:    "partial link without topics",
			action:  "install",
			opts:    runOptions{Type: "linkpartial", Source: "Sandbox"},
			wantErr: workflow.ErrNoTopicsSelected,
		},
		{
			name:   "partial link",
			action: "install",
			opts: runOptions{Type: "linkpartial", Source: "Sandbox",
				Copy: topicList{"WebHome"}, Link: topicList{"WebNotify", "WebPreferences"}},
			want: models.ActionRequest{App: "wiki", Action: "install", Type: models.TransferLinkPartial,
				Source: "Sandbox", Destination: "Sandbox",
				CopyList: []string{"WebHome"}, LinkList: []string{"WebPreferences", "WebNotify"}},
		},
		{
			name:      "installed action has no fields",
			installed: true,
			action:    "uninstall",
			want: models.ActionRequest{App: "wiki", Action: "uninstall",
				CopyList: []string{}, LinkList: []string{}},
		},
		{
			name:      "true toggle",
			installed: true,
			action:    "reindex",
			want: models.ActionRequest{App: "wiki", Action: "reindex",
				CopyList: []string{}, LinkList: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := prepareRun(context.Background(), wikiHost(tt.installed), "wiki", tt.action, tt.opts)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("prepareRun: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("request = %+v\nwant      %+v", got, tt.want)
			}
		})
	}
}

func TestPrepareRunRejects(t *testing.T) {
	ctx := context.Background()

	if _, err := prepareRun(ctx, wikiHost(false), "wiki", "uninstall", runOptions{}); err == nil {
		t.Error("uninstall before install should be rejected")
	}

	var cfgErr *workflow.ConfigurationError
	if _, err := prepareRun(ctx, wikiHost(false), "wiki", "upgrade", runOptions{}); !errors.As(err, &cfgErr) {
		t.Errorf("unknown action err = %v, want ConfigurationError", err)
	}

	if _, err := prepareRun(ctx, wikiHost(false), "wiki", "install", runOptions{Source: "Sandbox"}); err == nil {
		t.Error("--from without linkpartial should be rejected")
	}

	opts := runOptions{Type: "linkpartial", Source: "Sandbox", Copy: topicList{"WebHome"}, Link: topicList{"WebHome"}}
	if _, err := prepareRun(ctx, wikiHost(false), "wiki", "install", opts); err == nil {
		t.Error("topic both copied and linked should be rejected")
	}

	opts = runOptions{Type: "linkpartial", Source: "Sandbox", Copy: topicList{"Missing"}}
	if _, err := prepareRun(ctx, wikiHost(false), "wiki", "install", opts); err == nil {
		t.Error("unknown topic should be rejected")
	}

	host := wikiHost(false)
	host.topicErr = errors.New("boom")
	opts = runOptions{Type: "linkpartial", Source: "Sandbox", Copy: topicList{"WebHome"}}
	var fetchErr *workflow.FetchError
	if _, err := prepareRun(ctx, host, "wiki", "install", opts); !errors.As(err, &fetchErr) {
		t.Errorf("topic failure err = %v, want FetchError", err)
	}

	if _, err := prepareRun(ctx, &fakeHost{}, "wiki", "install", runOptions{}); !errors.As(err, &fetchErr) {
		t.Errorf("catalog failure err = %v, want FetchError", err)
	}
}

func TestTransferTypeValue(t *testing.T) {
	var v transferTypeValue
	if err := v.Set("LinkPartial"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v.String() != "linkpartial" {
		t.Errorf("String() = %q", v.String())
	}
	if err := v.Set("symlink"); err == nil {
		t.Error("expected error for unknown type")
	}
	if v.String() != "linkpartial" {
		t.Error("failed Set must not change the value")
	}
}

func TestTopicList(t *testing.T) {
	var l topicList
	l.Set("A, B,,")
	l.Set("C")
	if want := (topicList{"A", "B", "C"}); !reflect.DeepEqual(l, want) {
		t.Errorf("list = %v, want %v", l, want)
	}
	if l.String() != "A,B,C" {
		t.Errorf("String() = %q", l.String())
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&workflow.ValidationError{Code: workflow.MissingDestination}, output.ErrCodeValidation},
		{&workflow.ConfigurationError{Action: "install", Reason: "missing descriptor"}, output.ErrCodeMisconfigured},
		{&workflow.ActionError{Message: "denied"}, output.ErrCodeActionFailed},
		{&workflow.FetchError{Op: "catalog", Err: hostclient.ErrUnauthorized}, output.ErrCodeUnauthorized},
		{&workflow.FetchError{Op: "catalog", Err: hostclient.ErrNotFound}, output.ErrCodeNotFound},
		{&workflow.FetchError{Op: "topics", Err: errors.New("timeout")}, output.ErrCodeFetchFailed},
		{errors.New("bad flag"), output.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Errorf("errorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestReportMarksErrors(t *testing.T) {
	err := report(&workflow.ActionError{Message: "denied"})
	if !reported(err) {
		t.Fatal("report should mark the error as printed")
	}
	var ae *workflow.ActionError
	if !errors.As(err, &ae) {
		t.Error("reported error should unwrap to the original")
	}
	if report(err) != err {
		t.Error("reporting twice should be a no-op")
	}
}

func TestUserMessage(t *testing.T) {
	err := &workflow.FetchError{Op: "catalog", Target: "wiki",
		Err: fmt.Errorf("get: %w", &hostclient.HostError{StatusCode: 500, Message: "plugin crashed"})}
	if got := userMessage(err); got != "plugin crashed" {
		t.Errorf("userMessage = %q", got)
	}
}

func TestSplitApplications(t *testing.T) {
	apps := []models.Application{
		{ID: "blog", State: models.StateUnmanaged},
		{ID: "forum", State: models.StateManaged},
		{ID: "wiki", State: models.StateManaged},
	}
	managed, unmanaged := splitApplications(apps)
	if len(managed) != 2 || managed[0].ID != "forum" || managed[1].ID != "wiki" {
		t.Errorf("managed = %v", managed)
	}
	if len(unmanaged) != 1 || unmanaged[0].ID != "blog" {
		t.Errorf("unmanaged = %v", unmanaged)
	}
}

func TestNewAppView(t *testing.T) {
	host := wikiHost(false)
	host.detail.Actions = append(host.detail.Actions, models.ActionEntry{
		Name: "configure", Descriptor: &models.ActionDescriptor{}, Raw: []byte(`{"installed":"yes"}`),
	})
	cat := workflow.NewCatalog(host.detail)
	v := newAppView(cat)

	if v.Installed || len(v.Actions) != 4 {
		t.Fatalf("view = %+v", v)
	}
	install := v.Actions[0]
	if !install.Selectable || install.Default != models.TransferMove || len(install.Types) != 4 {
		t.Errorf("install = %+v", install)
	}
	if v.Actions[1].Selectable {
		t.Error("uninstall should not be selectable before install")
	}
	if v.Actions[2].Toggle == nil || !*v.Actions[2].Toggle {
		t.Errorf("reindex toggle = %v", v.Actions[2].Toggle)
	}
	if v.Actions[3].Problem == "" {
		t.Error("malformed descriptor should carry a problem")
	}
}

func TestErrorDetails(t *testing.T) {
	d := errorDetails(&workflow.ValidationError{Code: workflow.MissingSource})
	if d["check"] != "MissingSource" {
		t.Errorf("validation details = %v", d)
	}
	d = errorDetails(&workflow.FetchError{Op: "catalog", Target: "wiki", Err: errors.New("x")})
	if d["op"] != "catalog" || d["target"] != "wiki" {
		t.Errorf("fetch details = %v", d)
	}
	if d := errorDetails(errors.New("plain")); d != nil {
		t.Errorf("plain details = %v", d)
	}
}
