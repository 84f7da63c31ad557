package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const yandexInfoURL = "https://login.yandex.ru/info?format=json"

type Yandex struct {
	cfg     *oauth2.Config
	infoURL string
	retries uint64
	backOff func() backoff.BackOff
}

func NewYandex(clientID, clientSecret, redirectURI string) *Yandex {
	return &Yandex{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     endpoints.Yandex,
		},
		infoURL: yandexInfoURL,
		retries: 3,
		backOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

func (y *Yandex) Name() string { return "yandex" }

func (y *Yandex) AuthCodeURL(state string) string {
	return y.cfg.AuthCodeURL(state)
}

func (y *Yandex) Exchange(ctx context.Context, code string) (*Profile, error) {
	if code == "" {
		return nil, failure(y.Name(), "code not provided", nil)
	}
	tok, err := y.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, failure(y.Name(), "token exchange", err)
	}

	var info struct {
		ID           string `json:"id"`
		Login        string `json:"login"`
		DefaultEmail string `json:"default_email"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		DisplayName  string `json:"display_name"`
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.infoURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "OAuth "+tok.AccessToken)

		res, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		switch {
		case res.StatusCode >= 500:
			return fmt.Errorf("profile endpoint: %s", res.Status)
		case res.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("profile endpoint: %s", res.Status))
		}
		if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(y.backOff(), y.retries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, failure(y.Name(), "profile fetch", err)
	}
	if info.ID == "" {
		return nil, failure(y.Name(), "profile fetch", errors.New("empty account id"))
	}

	return &Profile{
		ID:          info.ID,
		Login:       info.Login,
		Email:       info.DefaultEmail,
		FirstName:   info.FirstName,
		LastName:    info.LastName,
		DisplayName: info.DisplayName,
	}, nil
}
