package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mattermost/ledgergw/model"
)

func handleListSubmissions(c *Context, w http.ResponseWriter, r *http.Request) {
	submissions, err := c.Store.GetSubmissions()
	if err != nil {
		c.Logger.WithError(err).Error("failed to fetch submissions")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, submissionStatusListFromSubmissions(submissions))
}

func handleGetSubmission(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	submissionID := vars["id"]
	submission, err := c.Store.GetSubmission(submissionID)
	if err != nil {
		c.Logger.WithError(err).Errorf("failed to fetch submission with ID %s", submissionID)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if submission == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, submissionStatusFromSubmission(submission))
}

func submissionStatusFromSubmission(s *model.Submission) *model.SubmissionStatus {
	return &model.SubmissionStatus{
		Submission: *s,
		State:      s.State(),
	}
}

func submissionStatusListFromSubmissions(submissions []*model.Submission) []*model.SubmissionStatus {
	statuses := []*model.SubmissionStatus{}
	for _, s := range submissions {
		statuses = append(statuses, submissionStatusFromSubmission(s))
	}
	return statuses
}
