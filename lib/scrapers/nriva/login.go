package nriva

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"nriva-scraper/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

var ErrLoginFailed = fmt.Errorf("failed to login to your account")

var errorSelectors = []string{
	".alert-danger",
	".invalid-feedback",
	".alert",
	".error",
}

// Login performs the full login transaction: token resolution,
// captcha solving and the combined form post. A missing token or
// captcha is a hard failure, there is no fallback login path.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	doc, _, err := c.fetchDocument(ctx, loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return fmt.Errorf("fetch login page: %w", err)
	}

	token := ResolveToken(doc)
	if token == "" {
		span.SetStatus(codes.Error, "failed to find anti-forgery token")
		return fmt.Errorf("could not find anti-forgery token on login page")
	}

	challenge, ok := FindCaptcha(doc)
	if !ok {
		span.SetStatus(codes.Error, "failed to find captcha challenge")
		return fmt.Errorf("could not find captcha challenge on login page")
	}
	answer, ok := SolveCaptcha(challenge)
	if !ok {
		span.SetStatus(codes.Error, "failed to solve captcha challenge")
		return fmt.Errorf("could not solve captcha challenge %q", challenge)
	}
	slog.DebugContext(ctx, "solved login captcha", "challenge", challenge, "answer", answer)

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"_token":   token,
			"email":    username,
			"password": password,
			"captcha":  answer,
		}).
		Post(loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to make login request")
		return fmt.Errorf("submit login form: %w", err)
	}

	finalUrl := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalUrl = res.RawResponse.Request.URL.String()
	}

	body := strings.ToLower(string(res.Body()))
	authenticated := strings.Contains(finalUrl, "dashboard") ||
		strings.Contains(finalUrl, "account") ||
		strings.Contains(body, "logout")
	if !strings.Contains(finalUrl, loginPath) && authenticated {
		slog.InfoContext(ctx, "login succeeded", "url", finalUrl)
		return nil
	}

	doc, err = goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, ErrLoginFailed.Error())
		return ErrLoginFailed
	}
	if message := extractErrorMessage(doc); message != "" {
		span.SetStatus(codes.Error, message)
		return fmt.Errorf("%w: %s", ErrLoginFailed, message)
	}

	span.SetStatus(codes.Error, ErrLoginFailed.Error())
	return ErrLoginFailed
}

// the text of the first error/alert element with content, "" when
// the page shows none
func extractErrorMessage(doc *goquery.Document) string {
	for _, selector := range errorSelectors {
		message := htmlutil.NormalizeText(doc.Find(selector).First().Text())
		if message != "" {
			return message
		}
	}
	return ""
}
