package nriva

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"nriva-scraper/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/nriva")

const (
	loginPath          = "/login"
	searchPagePath     = "/eedu-jodu/search-profiles"
	searchEndpointPath = "/eedu-jodu/search-eedujodu-profiles"
	profilePathFormat  = "/eedu-jodu/profile/%s"
)

// Client holds the transport session for one scraping run: cookies,
// headers and the base url. Anti-forgery tokens are page-scoped, so
// they are resolved per fetch instead of being stored here.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

type ClientOptions struct {
	BaseUrl string
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}
	return c, nil
}

func (c *Client) SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyutil.InstrumentClient(c.Http, tracer, output)
}

// fetches a page and parses it, returning the response alongside the
// document so callers can inspect the final url after redirects.
func (c *Client) fetchDocument(ctx context.Context, path string) (*goquery.Document, *resty.Response, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, res, err
	}
	return doc, res, nil
}

// Download fetches the raw bytes of an asset url. Relative urls are
// resolved against the client's base url.
func (c *Client) Download(ctx context.Context, rawUrl string) ([]byte, error) {
	link, err := url.Parse(rawUrl)
	if err != nil {
		return nil, err
	}
	link = c.BaseUrl.ResolveReference(link)

	res, err := c.Http.R().
		SetContext(ctx).
		Get(link.String())
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("download %s: status %d", link, res.StatusCode())
	}
	return res.Body(), nil
}
