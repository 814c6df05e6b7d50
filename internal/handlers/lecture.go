package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/courseloom/courseloom-backend/internal/apierr"
	"github.com/courseloom/courseloom-backend/internal/services"
)

type LectureHandler struct {
	lectureService services.LectureService
}

func NewLectureHandler(lectureService services.LectureService) *LectureHandler {
	return &LectureHandler{lectureService: lectureService}
}

func (lh *LectureHandler) Create(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_course_id", err))
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.BadRequest("invalid_body", err))
		return
	}
	lecture, err := lh.lectureService.CreateLecture(c.Request.Context(), courseID, req.Title)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"lecture": lecture, "message": "lecture created"})
}

func (lh *LectureHandler) GetCourseLectures(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_course_id", err))
		return
	}
	lectures, err := lh.lectureService.GetCourseLectures(c.Request.Context(), courseID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"lectures": lectures})
}

func (lh *LectureHandler) GetByID(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("lectureId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_lecture_id", err))
		return
	}
	lecture, err := lh.lectureService.GetLectureByID(c.Request.Context(), lectureID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"lecture": lecture})
}

func (lh *LectureHandler) Edit(c *gin.Context) {
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
	var req struct {
		Title         string `json:"title"`
		VideoURL      string `json:"video_url"`
		VideoAssetID  string `json:"asset_id"`
		IsPreviewFree *bool  `json:"is_preview_free"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.BadRequest("invalid_body", err))
		return
	}
	lecture, err := lh.lectureService.EditLecture(c.Request.Context(), courseID, lectureID, services.LectureUpdate{
		Title:         req.Title,
		VideoURL:      req.VideoURL,
		VideoAssetID:  req.VideoAssetID,
		IsPreviewFree: req.IsPreviewFree,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"lecture": lecture, "message": "lecture updated"})
}

func (lh *LectureHandler) Remove(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("lectureId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_lecture_id", err))
		return
	}
	if err := lh.lectureService.RemoveLecture(c.Request.Context(), lectureID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true, "message": "lecture removed"})
}
