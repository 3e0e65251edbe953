package transfork

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/okdaichi/transfork/quic"
	"github.com/okdaichi/transfork/quic/quicgo"
	"github.com/okdaichi/transfork/transfork/internal/message"
	"github.com/okdaichi/transfork/webtransport"
	"github.com/okdaichi/transfork/webtransport/webtransportgo"
)

// Client establishes transfork connections.
// It supports both WebTransport (https URLs) and native QUIC (moqt URLs).
type Client struct {
	/*
	 * TLS configuration
	 */
	TLSConfig *tls.Config

	/*
	 * QUIC configuration
	 */
	QUICConfig *quic.Config

	/*
	 * Transfork configuration
	 */
	Config *Config

	/*
	 * Logger
	 * If nil, Config.Logger is used.
	 */
	Logger *slog.Logger

	/*
	 * Dial functions
	 * If nil, the quic-go and webtransport-go implementations are used.
	 */
	DialQUICFunc         quic.DialAddrFunc
	DialWebTransportFunc webtransport.DialAddrFunc

	/*
	 * Fingerprint URL
	 * If set, the server certificate is verified against the hex SHA-256
	 * fingerprint served at this URL instead of the system roots.
	 * This allows self-signed certificates in development.
	 */
	FingerprintURL string

	// HTTPClient fetches the fingerprint. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return c.Config.logger()
}

// Dial connects to urlStr and completes the session handshake.
func (c *Client) Dial(ctx context.Context, urlStr string) (*Connection, error) {
	logger := c.logger()

	u, err := url.Parse(urlStr)
	if err != nil {
		logger.Error("URL parsing failed", "error", err)
		return nil, err
	}

	switch u.Scheme {
	case "https":
		return c.DialWebTransport(ctx, u.String())
	case "moqt":
		return c.DialQUIC(ctx, u.Host)
	default:
		logger.Error("unsupported URL scheme", "scheme", u.Scheme)
		return nil, fmt.Errorf("%w: %q", ErrInvalidScheme, u.Scheme)
	}
}

// DialWebTransport connects to an https URL over WebTransport.
func (c *Client) DialWebTransport(ctx context.Context, urlStr string) (*Connection, error) {
	logger := c.logger().With("url", urlStr)

	tlsConfig, err := c.tlsConfig(ctx)
	if err != nil {
		logger.Error("failed to fetch certificate fingerprint", "error", err)
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.Config.setupTimeout())
	defer cancel()

	dial := c.DialWebTransportFunc
	if dial == nil {
		dial = webtransportgo.Dial
	}

	logger.Debug("dialing WebTransport")

	_, conn, err := dial(dialCtx, urlStr, http.Header{}, tlsConfig)
	if err != nil {
		logger.Error("WebTransport dial failed", "error", err)
		return nil, err
	}

	return c.Setup(ctx, conn)
}

// DialQUIC connects to addr over native QUIC.
func (c *Client) DialQUIC(ctx context.Context, addr string) (*Connection, error) {
	logger := c.logger().With("address", addr)

	tlsConfig, err := c.tlsConfig(ctx)
	if err != nil {
		logger.Error("failed to fetch certificate fingerprint", "error", err)
		return nil, err
	}
	tlsConfig.NextProtos = []string{NextProtoMOQ}

	dialCtx, cancel := context.WithTimeout(ctx, c.Config.setupTimeout())
	defer cancel()

	dial := c.DialQUICFunc
	if dial == nil {
		dial = quicgo.DialAddrEarly
	}

	logger.Debug("dialing QUIC")

	conn, err := dial(dialCtx, addr, tlsConfig, c.QUICConfig)
	if err != nil {
		logger.Error("QUIC dial failed", "error", err)
		return nil, err
	}

	return c.Setup(ctx, conn)
}

// Setup performs the client side of the session handshake on conn.
// The connection is closed when the handshake fails.
func (c *Client) Setup(ctx context.Context, conn quic.Connection) (*Connection, error) {
	logger := c.logger().With(
		"local_address", conn.LocalAddr(),
		"remote_address", conn.RemoteAddr(),
	)

	ctx, cancel := context.WithTimeout(ctx, c.Config.setupTimeout())
	defer cancel()

	versions := c.Config.versions()
	offered := make([]uint64, 0, len(versions))
	for _, v := range versions {
		offered = append(offered, uint64(v))
	}

	session, err := openStream(ctx, conn, message.StreamTypeSession, message.SessionClientMessage{
		SupportedVersions: offered,
	})
	if err != nil {
		logger.Error("failed to open session stream", "error", err)
		conn.CloseWithError(quic.ApplicationErrorCode(SetupFailedErrorCode), SetupFailedErrorCode.String())
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		session.CloseWithError(NoErrorCode)
	})

	var ssm message.SessionServerMessage
	err = ssm.Decode(session.Reader)
	stop()

	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		logger.Error("failed to receive session server message", "error", err)
		conn.CloseWithError(quic.ApplicationErrorCode(SetupFailedErrorCode), SetupFailedErrorCode.String())
		return nil, err
	}

	version := Version(ssm.SelectedVersion)
	if !slices.Contains(versions, version) {
		logger.Error("server selected a version that was not offered", "version", version.String())
		conn.CloseWithError(quic.ApplicationErrorCode(UnsupportedVersionErrorCode), UnsupportedVersionErrorCode.String())
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}

	return newConnection(conn, session, version, c.Config, logger), nil
}

func (c *Client) tlsConfig(ctx context.Context) (*tls.Config, error) {
	var config *tls.Config
	if c.TLSConfig != nil {
		config = c.TLSConfig.Clone()
	} else {
		config = &tls.Config{}
	}

	if c.FingerprintURL == "" {
		return config, nil
	}

	fingerprint, err := c.fetchFingerprint(ctx)
	if err != nil {
		return nil, err
	}

	// The fingerprint replaces chain verification.
	config.InsecureSkipVerify = true
	config.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return errors.New("transfork: no peer certificate")
		}
		sum := sha256.Sum256(rawCerts[0])
		if !bytes.Equal(sum[:], fingerprint) {
			return errors.New("transfork: certificate fingerprint mismatch")
		}
		return nil
	}

	return config, nil
}

func (c *Client) fetchFingerprint(ctx context.Context) ([]byte, error) {
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FingerprintURL, nil)
	if err != nil {
		return nil, err
	}

	rsp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transfork: fingerprint request failed: %s", rsp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(rsp.Body, 1<<10))
	if err != nil {
		return nil, err
	}

	fingerprint, err := hex.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("transfork: invalid fingerprint: %w", err)
	}
	if len(fingerprint) != sha256.Size {
		return nil, fmt.Errorf("transfork: invalid fingerprint length %d", len(fingerprint))
	}

	return fingerprint, nil
}
