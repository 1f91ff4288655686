package keep

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
)

const (
	// Public key Google Play Services uses to encrypt the login password:
	// a length-prefixed modulus followed by a length-prefixed exponent.
	googleLoginKey = "AAAAgMom/1a/v0lblO2Ubrt60J2gcuXSljGFQXgcyZWveWLEwo6prwgi3iJIZdodyhKZQrNWp5nKJ3srRXcUW+F1BD3baEVGcmEgqaLZUNBjm057pKRI16kB0YppeGx5qIQ5QjKzsR8ETQbKLNWgRY0QRNVz34kMJR3P/LgHax/6rmf5AAAAAwEAAQ=="

	clientSig  = "38918a453d07199354f8b19af05ec6562ced5788"
	keepApp    = "com.google.android.keep"
	keepScopes = "oauth2:https://www.googleapis.com/auth/memento https://www.googleapis.com/auth/reminders"

	authUserAgent = "GoogleAuth/1.4"
	sdkVersion    = "17"
)

// authClient talks to the Google Play Services login endpoint.
type authClient struct {
	httpClient *http.Client
	url        string
}

// masterLogin exchanges an email and password for a long-lived master token.
func (c *authClient) masterLogin(ctx context.Context, email, password, deviceID string) (string, error) {
	encrypted, err := encryptPassword(email, password)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"accountType":        {"HOSTED_OR_GOOGLE"},
		"Email":              {email},
		"has_permission":     {"1"},
		"add_account":        {"1"},
		"EncryptedPasswd":    {encrypted},
		"service":            {"ac2dm"},
		"source":             {"android"},
		"androidId":          {deviceID},
		"device_country":     {"us"},
		"operatorCountry":    {"us"},
		"lang":               {"en"},
		"sdk_version":        {sdkVersion},
		"client_sig":         {clientSig},
		"callerSig":          {clientSig},
		"droidguard_results": {"dummy123"},
	}

	resp, err := c.post(ctx, form)
	if err != nil {
		return "", err
	}

	token := resp["Token"]
	if token == "" {
		return "", authFailure(resp)
	}
	return token, nil
}

// oauth exchanges a master token for a short-lived Keep API token.
func (c *authClient) oauth(ctx context.Context, email, masterToken, deviceID string) (string, error) {
	form := url.Values{
		"accountType":     {"HOSTED_OR_GOOGLE"},
		"Email":           {email},
		"has_permission":  {"1"},
		"EncryptedPasswd": {masterToken},
		"service":         {keepScopes},
		"source":          {"android"},
		"androidId":       {deviceID},
		"app":             {keepApp},
		"client_sig":      {clientSig},
		"device_country":  {"us"},
		"operatorCountry": {"us"},
		"lang":            {"en"},
		"sdk_version":     {sdkVersion},
	}

	resp, err := c.post(ctx, form)
	if err != nil {
		return "", err
	}

	token := resp["Auth"]
	if token == "" {
		return "", authFailure(resp)
	}
	return token, nil
}

func (c *authClient) post(ctx context.Context, form url.Values) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("User-Agent", authUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	values := parseAuthResponse(string(body))

	// Credential problems come back as 403 with an Error line
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return nil, authFailure(values)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ServerError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return values, nil
}

func authFailure(values map[string]string) error {
	code := values["Error"]
	if code == "" {
		code = "no token in response"
	}
	return &AuthError{Code: code}
}

// parseAuthResponse splits the key=value lines of an auth response.
func parseAuthResponse(body string) map[string]string {
	values := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		values[key] = value
	}
	return values
}

// encryptPassword builds the EncryptedPasswd field: a version byte, four
// bytes of the key fingerprint and the RSA-OAEP ciphertext of
// "email\x00password", URL-safe base64 encoded.
func encryptPassword(email, password string) (string, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(googleLoginKey)
	if err != nil {
		return "", fmt.Errorf("failed to decode login key: %w", err)
	}

	pub, err := parseLoginKey(keyBytes)
	if err != nil {
		return "", err
	}

	ciphertext, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, []byte(email+"\x00"+password), nil)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt password: %w", err)
	}

	digest := sha1.Sum(keyBytes)

	signature := make([]byte, 0, 1+4+len(ciphertext))
	signature = append(signature, 0)
	signature = append(signature, digest[:4]...)
	signature = append(signature, ciphertext...)

	return base64.URLEncoding.EncodeToString(signature), nil
}

func parseLoginKey(data []byte) (*rsa.PublicKey, error) {
	modulus, rest, err := readLengthPrefixed(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse login key modulus: %w", err)
	}
	exponent, _, err := readLengthPrefixed(rest)
	if err != nil {
		return nil, fmt.Errorf("failed to parse login key exponent: %w", err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(modulus),
		E: int(new(big.Int).SetBytes(exponent).Int64()),
	}, nil
}

func readLengthPrefixed(data []byte) ([]byte, []byte, error) {
	if len(data) < 4 {
		return nil, nil, io.ErrUnexpectedEOF
	}
	n := binary.BigEndian.Uint32(data[:4])
	if uint32(len(data)-4) < n {
		return nil, nil, io.ErrUnexpectedEOF
	}
	return data[4 : 4+n], data[4+n:], nil
}
