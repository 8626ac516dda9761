package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// ErrNoCredentials signals that the mailbox has not been provisioned yet
// (missing client secret or stored token). Callers treat this as "nothing
// to sync", not as a fault.
var ErrNoCredentials = errors.New("gmail credentials not provisioned")

// Config locates the OAuth client secret and the stored user token. Both
// paths are resolved once by the caller; there is no runtime path guessing.
type Config struct {
	CredentialsPath string
	TokenPath       string
}

// Gmail implements Source over the Gmail API.
type Gmail struct {
	svc         *gmail.Service
	maxPerLabel int64
}

// maxMessagesPerLabel bounds how many messages one sync pass pulls per
// label. Older backlog is not retroactively fetched.
const maxMessagesPerLabel = 50

// NewGmail builds an authenticated Gmail source. Construction fails fast
// when the client secret or token is missing or unreadable; the caller owns
// the retry policy. The token must have been obtained beforehand via
// ProvisionToken (the authorize subcommand), this code never starts an
// interactive OAuth flow.
func NewGmail(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Gmail, error) {
	oauthConfig, err := loadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}

	tokenData, err := os.ReadFile(cfg.TokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("reading token: %w", err)
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(tokenData, token); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	clientOpts := append([]option.ClientOption{
		option.WithTokenSource(oauthConfig.TokenSource(ctx, token)),
	}, opts...)

	svc, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}

	return &Gmail{svc: svc, maxPerLabel: maxMessagesPerLabel}, nil
}

func loadOAuthConfig(cfg Config) (*oauth2.Config, error) {
	secret, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("reading client secret: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(secret, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret: %w", err)
	}
	return oauthConfig, nil
}

// ProvisionToken runs the one-time installed-app OAuth flow: it prints the
// consent URL to out, reads the authorization code from in, exchanges it and
// stores the resulting token at cfg.TokenPath for NewGmail to pick up.
func ProvisionToken(ctx context.Context, cfg Config, out io.Writer, in io.Reader) error {
	oauthConfig, err := loadOAuthConfig(cfg)
	if err != nil {
		return err
	}

	url := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open the following URL in a browser, grant access, then paste the code here:\n%s\n> ", url)

	var code string
	if _, err := fmt.Fscan(in, &code); err != nil {
		return fmt.Errorf("reading authorization code: %w", err)
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.WriteFile(cfg.TokenPath, data, 0600); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

// ListCandidates resolves the label name to its id and lists the most
// recent messages under it. An unknown label yields no candidates.
func (g *Gmail) ListCandidates(ctx context.Context, label string) ([]Candidate, error) {
	labels, err := g.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}

	var labelID string
	for _, l := range labels.Labels {
		if l.Name == label {
			labelID = l.Id
			break
		}
	}
	if labelID == "" {
		return nil, nil
	}

	res, err := g.svc.Users.Messages.List("me").
		LabelIds(labelID).
		MaxResults(g.maxPerLabel).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages for label %q: %w", label, err)
	}

	candidates := make([]Candidate, 0, len(res.Messages))
	for _, m := range res.Messages {
		candidates = append(candidates, Candidate{MessageID: m.Id})
	}
	return candidates, nil
}

// GetDetail fetches the full message and flattens the Gmail payload into
// the Part tree the sync walks.
func (g *Gmail) GetDetail(ctx context.Context, messageID string) (*Message, error) {
	msg, err := g.svc.Users.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", messageID, err)
	}
	return &Message{ID: msg.Id, Payload: convertPart(msg.Payload)}, nil
}

// DownloadAttachment fetches and decodes one attachment body.
func (g *Gmail) DownloadAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	att, err := g.svc.Users.Messages.Attachments.Get("me", messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching attachment %s of message %s: %w", attachmentID, messageID, err)
	}

	// Gmail returns url-safe base64, with or without padding.
	data, err := base64.URLEncoding.DecodeString(att.Data)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(att.Data)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding attachment data: %w", err)
	}
	return data, nil
}

func convertPart(p *gmail.MessagePart) Part {
	if p == nil {
		return Part{}
	}
	part := Part{Filename: p.Filename}
	if p.Body != nil {
		part.AttachmentID = p.Body.AttachmentId
	}
	for _, sub := range p.Parts {
		part.Parts = append(part.Parts, convertPart(sub))
	}
	return part
}
