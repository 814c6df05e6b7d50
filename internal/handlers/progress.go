package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/courseloom/courseloom-backend/internal/apierr"
	"github.com/courseloom/courseloom-backend/internal/services"
)

type ProgressHandler struct {
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

func (ph *ProgressHandler) GetCourseProgress(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_course_id", err))
		return
	}
	detail, err := ph.progressService.GetCourseProgress(c.Request.Context(), courseID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"data": detail})
}

func (ph *ProgressHandler) RecordLectureViewed(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_course_id", err))
		return
	}
	lectureID, err := uuid.Parse(c.Param("lectureId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_lecture_id", err))
		return
	}
	progress, err := ph.progressService.RecordLectureViewed(c.Request.Context(), courseID, lectureID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress, "message": "lecture progress updated"})
}

func (ph *ProgressHandler) MarkCompleted(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_course_id", err))
		return
	}
	if err := ph.progressService.MarkCompleted(c.Request.Context(), courseID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true, "message": "course marked as completed"})
}

func (ph *ProgressHandler) MarkIncompleted(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_course_id", err))
		return
	}
	if err := ph.progressService.MarkIncompleted(c.Request.Context(), courseID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true, "message": "course marked as incompleted"})
}
