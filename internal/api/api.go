// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mattermost/ledgergw/model"
)

// WelcomeMessage is served on the root path.
const WelcomeMessage = "Welcome to Blockchain REST API with Go!!"

// Register adds the API routes to rootRouter. The submission routes are
// only registered when the context has a Store.
func Register(rootRouter *mux.Router, context *Context) {
	addContext := func(handler contextHandlerFunc) *contextHandler {
		return newContextHandler(context, handler)
	}

	rootRouter.Handle("/", addContext(handleWelcome)).Methods(http.MethodGet)

	apiRouter := rootRouter.PathPrefix("/api").Subrouter()
	apiRouter.Handle("/transactions", addContext(handleCreateTransaction)).Methods(http.MethodPost)
	apiRouter.Handle("/transactions/{id}", addContext(handleGetTransaction)).Methods(http.MethodGet)

	if context.Store != nil {
		apiRouter.Handle("/submissions", addContext(handleListSubmissions)).Methods(http.MethodGet)
		apiRouter.Handle("/submissions/{id}", addContext(handleGetSubmission)).Methods(http.MethodGet)
	}
}

func handleWelcome(c *Context, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(WelcomeMessage))
}

// outputJSON is a helper method to write the given data as JSON to the given writer.
//
// It only logs an error if one occurs, rather than returning, since there is no point in trying
// to send a new status code back to the client once the body has started sending.
func outputJSON(c *Context, w io.Writer, data interface{}) {
	encoder := json.NewEncoder(w)
	err := encoder.Encode(data)
	if err != nil {
		c.Logger.WithError(err).Error("failed to encode result")
	}
}

// outputError writes err as an ErrorResponse with the status code for
// its kind.
func outputError(c *Context, w http.ResponseWriter, err error) {
	kind := model.KindOf(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCodeForKind(kind))
	outputJSON(c, w, model.ErrorResponse{
		Kind:    kind,
		Message: err.Error(),
	})
}

func statusCodeForKind(kind model.ErrorKind) int {
	switch kind {
	case model.ErrorKindConflict:
		return http.StatusConflict
	case model.ErrorKindTimeout:
		return http.StatusServiceUnavailable
	case model.ErrorKindConnection:
		return http.StatusBadGateway
	case model.ErrorKindParse:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
