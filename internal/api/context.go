// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/mattermost/ledgergw/internal/parser"
	"github.com/mattermost/ledgergw/model"
)

// Ledger is the transaction orchestration the API delegates to.
type Ledger interface {
	Query(ctx context.Context, transactionID string) (string, error)
	Submit(ctx context.Context, request *model.TransactionRequest) (string, error)
}

// Context provides the API with all necessary data and interfaces for responding to requests.
//
// It is cloned before each request, allowing per-request changes such as logger annotations.
type Context struct {
	Ledger    Ledger
	Parser    parser.Parser
	Store     Store
	Logger    logrus.FieldLogger
	RequestID string
}

// Clone creates a shallow copy of context, allowing clones to apply per-request changes.
func (c *Context) Clone() *Context {
	return &Context{
		Ledger: c.Ledger,
		Parser: c.Parser,
		Store:  c.Store,
		Logger: c.Logger,
	}
}

type contextHandlerFunc func(c *Context, w http.ResponseWriter, r *http.Request)

type contextHandler struct {
	context *Context
	handler contextHandlerFunc
}

// ServeHTTP satisfies the Handler interface for contextHandler
func (h contextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	context := h.context.Clone()
	context.RequestID = model.NewID()
	context.Logger = context.Logger.WithFields(
		logrus.Fields{
			"path":    r.URL.Path,
			"request": context.RequestID,
		})

	h.handler(context, w, r)
}

func newContextHandler(context *Context, handler contextHandlerFunc) *contextHandler {
	return &contextHandler{
		context: context,
		handler: handler,
	}
}
