// Package workflow orchestrates the two-phase notebook creation: Propose
// computes the destination and hands the user two signed tokens, Commit
// verifies them and materializes the notebook. No state lives on the server
// between the two phases; the tokens are the only carrier.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/sciapp/notebook-templates/internal/catalog"
	"github.com/sciapp/notebook-templates/internal/instantiate"
	"github.com/sciapp/notebook-templates/pkg/domain"
	"github.com/sciapp/notebook-templates/pkg/nberr"
	"github.com/sciapp/notebook-templates/pkg/token"
)

// Purpose salts for the two token streams. They differ so a destination
// token can never be replayed as a params token or vice versa.
const (
	SaltDestination = "create_template_destination"
	SaltParams      = "create_template_params"
)

// DestinationResolver maps the resolved relative path to the host-specific
// destination the notebook will be stored at.
type DestinationResolver interface {
	Resolve(ctx context.Context, relative string) (domain.Destination, error)
}

// HubURLResolver maps a destination to the user-facing URL of the stored
// notebook. An empty URL means there is none.
type HubURLResolver interface {
	Resolve(ctx context.Context, dest domain.Destination) (string, error)
}

// AuthenticationGate may short-circuit a request before any work happens.
// Intercept either writes its own response and reports handled=true, or
// returns the request to continue with, possibly carrying the authenticated
// user on its context.
type AuthenticationGate interface {
	Intercept(w http.ResponseWriter, r *http.Request) (next *http.Request, handled bool)
}

// Collaborators are the four host-supplied strategies. They are handed over
// once at construction and never change afterwards.
type Collaborators struct {
	Destinations DestinationResolver
	Sink         instantiate.StorageSink
	HubURLs      HubURLResolver
	Gate         AuthenticationGate
}

type Workflow struct {
	catalog *catalog.Catalog
	codec   *token.Codec
	inst    *instantiate.Instantiator
	collab  Collaborators
	maxAge  time.Duration
}

func New(cat *catalog.Catalog, codec *token.Codec, collab Collaborators, maxAge time.Duration) *Workflow {
	if maxAge <= 0 {
		maxAge = token.DefaultMaxAge
	}
	return &Workflow{
		catalog: cat,
		codec:   codec,
		inst:    instantiate.New(collab.Sink),
		collab:  collab,
		maxAge:  maxAge,
	}
}

func (wf *Workflow) Catalog() *catalog.Catalog { return wf.catalog }
func (wf *Workflow) Gate() AuthenticationGate  { return wf.collab.Gate }

// Proposal is the pending creation presented to the user for confirmation.
// The two tokens carry everything Commit needs.
type Proposal struct {
	TemplatePath     string
	Destination      domain.Destination
	DestinationToken string
	ParamsToken      string
}

// Propose resolves the user's parameters against the template path pattern,
// asks the destination resolver where the notebook would go and signs both
// into tokens.
func (wf *Workflow) Propose(ctx context.Context, templatePath string, paramSources ...string) (*Proposal, error) {
	if !wf.catalog.Contains(templatePath) {
		return nil, nberr.TemplateNotFound(templatePath)
	}
	params := domain.MergeParams(paramSources...)

	relative, err := domain.ResolvePath(templatePath, params)
	if err != nil {
		var missing *domain.MissingParameterError
		if errors.As(err, &missing) {
			return nil, nberr.MissingParameter(missing.Name)
		}
		return nil, nberr.DestinationResolution(err)
	}

	dest, err := wf.collab.Destinations.Resolve(ctx, relative)
	if err != nil {
		return nil, nberr.DestinationResolution(err)
	}

	destPayload, err := domain.EncodeDestination(dest)
	if err != nil {
		return nil, nberr.DestinationResolution(err)
	}
	destToken, err := wf.codec.Encode(destPayload, SaltDestination)
	if err != nil {
		return nil, nberr.DestinationResolution(err)
	}
	paramsToken, err := wf.codec.Encode(params, SaltParams)
	if err != nil {
		return nil, nberr.DestinationResolution(err)
	}

	return &Proposal{
		TemplatePath:     templatePath,
		Destination:      dest,
		DestinationToken: destToken,
		ParamsToken:      paramsToken,
	}, nil
}

// Outcome is the terminal state of a committed creation: a redirect to the
// hub, an inline download, or a plain acknowledgement when neither applies.
type Outcome struct {
	RedirectURL string
	Download    *Download
}

type Download struct {
	Filename string
	Data     []byte
}

// Commit verifies both confirmation tokens, instantiates the notebook and
// determines how to hand it to the user. Token failures of either stream are
// reported identically; the user simply retries.
func (wf *Workflow) Commit(ctx context.Context, templatePath, destToken, paramsToken string) (*Outcome, error) {
	if !wf.catalog.Contains(templatePath) {
		return nil, nberr.TemplateNotFound(templatePath)
	}

	var destPayload []byte
	if err := wf.codec.Decode(destToken, SaltDestination, wf.maxAge, (*json.RawMessage)(&destPayload)); err != nil {
		return nil, nberr.TokenRejected(err)
	}
	dest, err := domain.DecodeDestination(destPayload)
	if err != nil {
		return nil, nberr.TokenRejected(err)
	}
	params := domain.NewParamSet()
	if err := wf.codec.Decode(paramsToken, SaltParams, wf.maxAge, params); err != nil {
		return nil, nberr.TokenRejected(err)
	}

	templateFile, err := wf.catalog.FilePath(templatePath)
	if err != nil {
		return nil, nberr.TemplateNotFound(templatePath)
	}
	if _, err := wf.inst.Instantiate(ctx, templateFile, dest, params); err != nil {
		return nil, nberr.CreationFailed(err)
	}

	hubURL, err := wf.collab.HubURLs.Resolve(ctx, dest)
	if err != nil {
		return nil, nberr.HubURLUnknown(err)
	}
	if hubURL != "" {
		return &Outcome{RedirectURL: hubURL}, nil
	}
	if data := dest.InlineData(); data != nil {
		return &Outcome{Download: &Download{
			Filename: path.Base(dest.RelativePath()),
			Data:     data,
		}}, nil
	}
	return &Outcome{}, nil
}
