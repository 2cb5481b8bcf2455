// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Client is the programmatic interface to the ledger gateway API.
type Client struct {
	address    string
	headers    map[string]string
	httpClient *http.Client
}

func NewClient(address string) *Client {
	return &Client{
		address:    address,
		headers:    make(map[string]string),
		httpClient: &http.Client{},
	}
}

// GetTransaction reads the transaction with the given ID from the ledger.
func (c *Client) GetTransaction(transactionID string) (*QueryResponse, error) {
	resp, err := c.doGet(c.buildURL("/api/transactions/%s", url.PathEscape(transactionID)))
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse("get transaction", resp)
	}

	return NewQueryResponseFromReader(resp.Body)
}

// CreateTransaction submits a new transaction to the ledger.
func (c *Client) CreateTransaction(request *TransactionRequest) (*SubmitResponse, error) {
	resp, err := c.doPost(c.buildURL("/api/transactions"), request)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse("create transaction", resp)
	}

	return NewSubmitResponseFromReader(resp.Body)
}

// GetSubmission returns the journal entry with the given ID, or nil if
// it does not exist.
func (c *Client) GetSubmission(submissionID string) (*SubmissionStatus, error) {
	resp, err := c.doGet(c.buildURL("/api/submissions/%s", url.PathEscape(submissionID)))
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return NewSubmissionStatusFromReader(resp.Body)
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// GetSubmissions returns every journal entry.
func (c *Client) GetSubmissions() ([]*SubmissionStatus, error) {
	resp, err := c.doGet(c.buildURL("/api/submissions"))
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return NewSubmissionStatusListFromReader(resp.Body)
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// errorFromResponse converts an error body into a LedgerError so that
// callers can use KindOf on client errors too.
func errorFromResponse(op string, resp *http.Response) error {
	errorResponse, err := NewErrorResponseFromReader(resp.Body)
	if err != nil || errorResponse.Kind == "" {
		return NewLedgerError(ErrorKindUnknown, op, errors.Errorf("failed with status code %d", resp.StatusCode))
	}

	return NewLedgerError(errorResponse.Kind, op, errors.New(errorResponse.Message))
}

// closeBody ensures the Body of an http.Response is properly closed.
func closeBody(r *http.Response) {
	if r.Body != nil {
		_, _ = ioutil.ReadAll(r.Body)
		_ = r.Body.Close()
	}
}

func (c *Client) buildURL(urlPath string, args ...interface{}) string {
	return fmt.Sprintf("%s%s", c.address, fmt.Sprintf(urlPath, args...))
}

func (c *Client) doGet(u string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create http request")
	}
	for k, v := range c.headers {
		req.Header.Add(k, v)
	}

	return c.httpClient.Do(req)
}

func (c *Client) doPost(u string, request interface{}) (*http.Response, error) {
	requestBytes, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(requestBytes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create http request")
	}
	for k, v := range c.headers {
		req.Header.Add(k, v)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}
