package api

import "github.com/mattermost/ledgergw/model"

// Store is the submission journal. It is optional; a nil Store disables
// journalling and the submission endpoints.
type Store interface {
	CreateSubmission(submission *model.Submission) error
	GetSubmission(id string) (*model.Submission, error)
	GetSubmissions() ([]*model.Submission, error)
}
