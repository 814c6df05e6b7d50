package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/courseloom/courseloom-backend/internal/apierr"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/services"
)

type CourseHandler struct {
	courseService services.CourseService
	media         services.MediaService
}

func NewCourseHandler(courseService services.CourseService, media services.MediaService) *CourseHandler {
	return &CourseHandler{courseService: courseService, media: media}
}

func (ch *CourseHandler) Create(c *gin.Context) {
	var req struct {
		Title    string `json:"title"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.BadRequest("invalid_body", err))
		return
	}
	course, err := ch.courseService.CreateCourse(c.Request.Context(), req.Title, req.Category)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"course": course, "message": "course created"})
}

func (ch *CourseHandler) GetCreatorCourses(c *gin.Context) {
	courses, err := ch.courseService.GetCreatorCourses(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"courses": courses})
}

func (ch *CourseHandler) GetPublished(c *gin.Context) {
	courses, err := ch.courseService.GetPublishedCourses(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"courses": courses})
}

func (ch *CourseHandler) Search(c *gin.Context) {
	search := repos.CourseSearch{
		Query:       c.Query("query"),
		SortByPrice: c.Query("sortByPrice"),
	}
	if raw := c.Query("categories"); raw != "" {
		for _, cat := range strings.Split(raw, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				search.Categories = append(search.Categories, cat)
			}
		}
	}
	courses, err := ch.courseService.SearchCourses(c.Request.Context(), search)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"courses": courses})
}

func (ch *CourseHandler) GetByID(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_course_id", err))
		return
	}
	course, err := ch.courseService.GetCourseByID(c.Request.Context(), courseID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"course": course})
}

// Edit accepts multipart form data so a thumbnail can ride along with the
// field updates. The uploaded file lands in a temp path that is removed
// once the media host has it.
func (ch *CourseHandler) Edit(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_course_id", err))
		return
	}
	update := services.CourseUpdate{
		Title:       c.PostForm("title"),
		Subtitle:    c.PostForm("subtitle"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Level:       c.PostForm("level"),
	}
	if rawPrice := c.PostForm("price"); rawPrice != "" {
		price, pErr := strconv.ParseInt(rawPrice, 10, 64)
		if pErr != nil || price < 0 {
			RespondError(c, apierr.BadRequest("invalid_price", fmt.Errorf("price must be a non-negative integer")))
			return
		}
		update.Price = price
	}
	if file, fErr := c.FormFile("thumbnail"); fErr == nil && file != nil {
		tmpPath := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(file.Filename))
		if sErr := c.SaveUploadedFile(file, tmpPath); sErr != nil {
			RespondError(c, fmt.Errorf("save uploaded thumbnail: %w", sErr))
			return
		}
		defer os.Remove(tmpPath)
		update.ThumbnailPath = tmpPath
	}
	course, err := ch.courseService.EditCourse(c.Request.Context(), courseID, update)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"course": course, "message": "course updated"})
}

func (ch *CourseHandler) TogglePublish(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_course_id", err))
		return
	}
	publish, err := strconv.ParseBool(c.DefaultQuery("publish", "true"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_publish_flag", err))
		return
	}
	course, err := ch.courseService.TogglePublish(c.Request.Context(), courseID, publish)
	if err != nil {
		RespondError(c, err)
		return
	}
	msg := "course unpublished"
	if course.IsPublished {
		msg = "course published"
	}
	RespondOK(c, gin.H{"course": course, "message": msg})
}

// UploadVideo pushes a lecture video to the media host and returns the
// asset reference; attaching it to a lecture is a separate edit call.
func (ch *CourseHandler) UploadVideo(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		RespondError(c, apierr.BadRequest("missing_file", err))
		return
	}
	tmpPath := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		RespondError(c, fmt.Errorf("save uploaded video: %w", err))
		return
	}
	defer os.Remove(tmpPath)
	asset, err := ch.media.Upload(c.Request.Context(), tmpPath)
	if err != nil {
		RespondError(c, apierr.Upstream("video_upload_failed", err))
		return
	}
	RespondOK(c, gin.H{
		"video_url": asset.URL,
		"asset_id":  asset.AssetID,
		"message":   "video uploaded",
	})
}
