package server

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/clipwise/errors"
	"github.com/skillsenselab/clipwise/logger"
	"github.com/skillsenselab/clipwise/pipeline"
	"github.com/skillsenselab/clipwise/sink"
)

// Runner starts a pipeline job for one video. *pipeline.Orchestrator is the
// production implementation.
type Runner interface {
	Run(ctx context.Context, ref pipeline.VideoRef) (*sink.Result, error)
}

// ObjectEvent is the payload the object-store notifier posts on upload.
type ObjectEvent struct {
	EventType   string `json:"eventType"`
	Bucket      string `json:"bucket"`
	Path        string `json:"path" binding:"required"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true,
	".webm": true, ".avi": true, ".m4v": true,
}

// handleEvent accepts an upload event, filters non-video and self-produced
// objects, and starts a pipeline job in the background. The event is
// acknowledged with 202 before the job finishes; results land in object
// storage, not in this response.
func (s *Server) handleEvent(runner Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var event ObjectEvent
		if err := c.ShouldBindJSON(&event); err != nil {
			RespondWithError(c, errors.InvalidInput("body", err.Error()))
			return
		}

		if reason := s.ignoreReason(event); reason != "" {
			s.log.Debug("event ignored", map[string]interface{}{
				"path":   event.Path,
				"reason": reason,
			})
			RespondNoContent(c)
			return
		}

		select {
		case s.jobSlots <- struct{}{}:
		default:
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: ErrorBody{
				Code:    "BUSY",
				Message: "All pipeline job slots are in use; retry later.",
			}})
			return
		}

		ref := pipeline.VideoRef{
			Bucket:      event.Bucket,
			Path:        event.Path,
			ContentType: event.ContentType,
			Size:        event.Size,
		}

		s.jobs.Add(1)
		go func() {
			defer s.jobs.Done()
			defer func() { <-s.jobSlots }()

			// The triggering request is long gone by the time the job runs.
			if _, err := runner.Run(context.Background(), ref); err != nil {
				s.log.Error("pipeline job failed", map[string]interface{}{
					logger.FieldVideoID: ref.VideoID(),
					logger.FieldError:   err.Error(),
				})
			}
		}()

		RespondAccepted(c, gin.H{
			"videoId": ref.VideoID(),
			"path":    ref.Path,
		})
	}
}

// ignoreReason returns a non-empty reason when the event should not trigger
// a pipeline run.
func (s *Server) ignoreReason(event ObjectEvent) string {
	if event.EventType != "" && !strings.HasPrefix(event.EventType, "OBJECT_CREATED") {
		return "not a create event"
	}
	if strings.HasPrefix(event.Path, sink.ResultsPrefix) {
		return "pipeline output"
	}
	if !strings.HasPrefix(event.Path, s.config.UploadPrefix) {
		return "outside upload prefix"
	}
	if !isVideo(event) {
		return "not a video"
	}
	return ""
}

func isVideo(event ObjectEvent) bool {
	if strings.HasPrefix(event.ContentType, "video/") {
		return true
	}
	return videoExtensions[strings.ToLower(path.Ext(event.Path))]
}
