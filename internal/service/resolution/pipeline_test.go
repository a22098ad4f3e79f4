package resolution

import (
	"context"
	"errors"
	"testing"

	"github.com/pathlight/mailbroker/internal/domain"
	"github.com/pathlight/mailbroker/internal/resolver"
)

type fakeContacts struct {
	byQuery map[string][]domain.Contact
	gotQ    string
	err     error
}

func (f *fakeContacts) FindCandidates(ctx context.Context, query, owner string) ([]domain.Contact, error) {
	f.gotQ = query
	return f.byQuery[query], f.err
}

type fakeExternal struct {
	candidates []domain.ResolutionCandidate
	err        error
	calls      int
}

func (f *fakeExternal) Resolve(ctx context.Context, name, company string, max int) ([]domain.ResolutionCandidate, error) {
	f.calls++
	return f.candidates, f.err
}

func TestResolve_DirectParse(t *testing.T) {
	p := NewPipeline(&fakeContacts{}, nil, 5)

	for _, in := range []string{"Jane@Corp.com", "Jane Roe <Jane@Corp.com>"} {
		res, err := p.Resolve(context.Background(), Input{To: in})
		if err != nil {
			t.Fatalf("Resolve(%q): %v", in, err)
		}
		if len(res.Targets) != 1 {
			t.Fatalf("Resolve(%q): targets %+v", in, res.Targets)
		}
		if res.Targets[0].Email != "jane@corp.com" {
			t.Errorf("Resolve(%q): email %q, want lower-cased jane@corp.com", in, res.Targets[0].Email)
		}
		if res.Targets[0].MatchType != domain.MatchDirectParse {
			t.Errorf("Resolve(%q): match type %q", in, res.Targets[0].MatchType)
		}
		if res.Targets[0].Confidence != 1 {
			t.Errorf("Resolve(%q): confidence %v, want 1 for a parsed address", in, res.Targets[0].Confidence)
		}
	}
}

func TestResolve_EmptyInput(t *testing.T) {
	p := NewPipeline(&fakeContacts{}, nil, 5)
	if _, err := p.Resolve(context.Background(), Input{To: "   "}); !errors.Is(err, ErrInvalidRecipient) {
		t.Errorf("expected ErrInvalidRecipient, got %v", err)
	}
}

func TestResolve_PlaceholderFallsThroughToContacts(t *testing.T) {
	contacts := &fakeContacts{byQuery: map[string][]domain.Contact{
		"john@example.com": {{Name: "John Smith", Email: "john@realcorp.com"}},
	}}
	p := NewPipeline(contacts, nil, 5)

	res, err := p.Resolve(context.Background(), Input{To: "john@example.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Targets) != 1 || res.Targets[0].Email != "john@realcorp.com" {
		t.Errorf("unexpected targets: %+v", res.Targets)
	}
	if res.Targets[0].MatchType != domain.MatchContactsTable {
		t.Errorf("match type %q, want contacts table", res.Targets[0].MatchType)
	}
}

func TestIsPlaceholder(t *testing.T) {
	cases := map[string]bool{
		"a@example.com":   true,
		"a@EXAMPLE.ORG":   true,
		"a@example.net":   true,
		"a@example.co.uk": true,
		"a@example":       true,
		"a@examples.com":  false,
		"a@myexample.com": false,
		"a@corp.com":      false,
		"no-at-sign":      false,
	}
	for in, want := range cases {
		if got := isPlaceholder(in); got != want {
			t.Errorf("isPlaceholder(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestResolve_ExtractsNameFromNaturalLanguage(t *testing.T) {
	contacts := &fakeContacts{byQuery: map[string][]domain.Contact{
		"Abel": {{Name: "Abel Simbulan", Email: "abel@corp.com"}},
	}}
	p := NewPipeline(contacts, nil, 5)

	for _, in := range []string{"send hi to Abel", `Send a note TO "Abel".`, "to Abel,"} {
		res, err := p.Resolve(context.Background(), Input{To: in})
		if err != nil {
			t.Fatalf("Resolve(%q): %v", in, err)
		}
		if contacts.gotQ != "Abel" {
			t.Errorf("Resolve(%q): looked up %q, want Abel", in, contacts.gotQ)
		}
		if len(res.Targets) != 1 || res.Targets[0].Email != "abel@corp.com" {
			t.Errorf("Resolve(%q): targets %+v", in, res.Targets)
		}
	}
}

func TestExtractQueryName(t *testing.T) {
	cases := map[string]string{
		"send hi to Abel Simbulan": "Abel Simbulan",
		"Abel":                     "Abel",
		`to "Jane Roe",`:           "Jane Roe",
		"mentor Tobias":            "mentor Tobias",
	}
	for in, want := range cases {
		if got := extractQueryName(in); got != want {
			t.Errorf("extractQueryName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolve_DeduplicatesContactMatches(t *testing.T) {
	contacts := &fakeContacts{byQuery: map[string][]domain.Contact{
		"smith": {
			{Name: "John Smith", Email: "John@corp.com"},
			{Name: "J. Smith", Email: "john@corp.com"},
			{Name: "Jane Smith", Email: "jane@corp.com"},
		},
	}}
	p := NewPipeline(contacts, nil, 5)

	res, err := p.Resolve(context.Background(), Input{To: "smith"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := res.Emails(); len(got) != 2 || got[0] != "john@corp.com" || got[1] != "jane@corp.com" {
		t.Errorf("unexpected emails: %v", got)
	}
	for _, tgt := range res.Targets {
		if tgt.Confidence != 1 {
			t.Errorf("target %q confidence %v, want 1 for a stored contact", tgt.Email, tgt.Confidence)
		}
	}
}

func TestResolve_ExcludesSender(t *testing.T) {
	contacts := &fakeContacts{byQuery: map[string][]domain.Contact{
		"me": {{Name: "Me Myself", Email: "me@corp.com"}},
	}}
	p := NewPipeline(contacts, nil, 5)

	_, err := p.Resolve(context.Background(), Input{To: "me", Sender: "ME@corp.com"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if !nf.SenderExcluded {
		t.Error("expected SenderExcluded to be set")
	}
}

func TestResolve_SenderExclusionKeepsOtherMatches(t *testing.T) {
	contacts := &fakeContacts{byQuery: map[string][]domain.Contact{
		"corp": {
			{Name: "Me", Email: "me@corp.com"},
			{Name: "Jane", Email: "jane@corp.com"},
		},
	}}
	p := NewPipeline(contacts, nil, 5)

	res, err := p.Resolve(context.Background(), Input{To: "corp", Sender: "me@corp.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := res.Emails(); len(got) != 1 || got[0] != "jane@corp.com" {
		t.Errorf("unexpected emails: %v", got)
	}
}

func TestResolve_ExternalNeedsConfirmation(t *testing.T) {
	external := &fakeExternal{candidates: []domain.ResolutionCandidate{
		{Email: "jane@corp.com", Confidence: 0.85, MatchType: domain.MatchExternalResolver},
	}}
	p := NewPipeline(&fakeContacts{}, external, 5)

	_, err := p.Resolve(context.Background(), Input{To: "Jane Roe"})
	var conf *ConfirmationError
	if !errors.As(err, &conf) {
		t.Fatalf("expected ConfirmationError, got %v", err)
	}
	if len(conf.Candidates) != 1 || conf.Candidates[0].Email != "jane@corp.com" {
		t.Errorf("unexpected candidates: %+v", conf.Candidates)
	}
}

func TestResolve_ExternalConfirmed(t *testing.T) {
	external := &fakeExternal{candidates: []domain.ResolutionCandidate{
		{Email: "Jane@Corp.com", Confidence: 0.85},
		{Email: "jane@corp.com", Confidence: 0.6},
		{Email: "j.roe@corp.com", Confidence: 0.6},
	}}
	p := NewPipeline(&fakeContacts{}, external, 5)

	res, err := p.Resolve(context.Background(), Input{To: "Jane Roe", Confirm: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := res.Emails(); len(got) != 2 || got[0] != "jane@corp.com" || got[1] != "j.roe@corp.com" {
		t.Errorf("unexpected emails: %v", got)
	}
	for _, tgt := range res.Targets {
		if tgt.MatchType != domain.MatchExternalResolver {
			t.Errorf("target %q match type %q", tgt.Email, tgt.MatchType)
		}
	}
}

func TestResolve_ExternalEmpty(t *testing.T) {
	p := NewPipeline(&fakeContacts{}, &fakeExternal{}, 5)
	_, err := p.Resolve(context.Background(), Input{To: "Nobody Known", Confirm: true})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.SenderExcluded {
		t.Error("SenderExcluded must not be set without matches")
	}
}

func TestResolve_NoExternalResolver(t *testing.T) {
	p := NewPipeline(&fakeContacts{}, nil, 5)
	var nf *NotFoundError
	if _, err := p.Resolve(context.Background(), Input{To: "Nobody"}); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestResolve_ResolverSentinelsPassThrough(t *testing.T) {
	for _, sentinel := range []error{resolver.ErrNotConfigured, resolver.ErrUnavailable} {
		p := NewPipeline(&fakeContacts{}, &fakeExternal{err: sentinel}, 5)
		if _, err := p.Resolve(context.Background(), Input{To: "Nobody"}); !errors.Is(err, sentinel) {
			t.Errorf("expected %v to pass through, got %v", sentinel, err)
		}
	}
}

func TestResolve_ContactStoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("connection refused")
	p := NewPipeline(&fakeContacts{err: storeErr}, nil, 5)
	if _, err := p.Resolve(context.Background(), Input{To: "Abel"}); !errors.Is(err, storeErr) {
		t.Errorf("expected store error to propagate, got %v", err)
	}
}
