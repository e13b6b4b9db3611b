package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"studyhub/internal/database"
	"studyhub/internal/models"
	"studyhub/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// generateGroupID builds a readable unique id from the group name
func generateGroupID(name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, name)
	slug = strings.Trim(slug, "-")
	if len(slug) > 30 {
		slug = slug[:30]
	}
	if slug == "" {
		slug = "group"
	}
	return fmt.Sprintf("%s-%d", slug, time.Now().UnixNano()%1e9)
}

// CreateGroup handles the creation of a new study group
func CreateGroup(c *gin.Context) {
	organiser, ok := requireUsername(c)
	if !ok {
		return
	}

	var request models.CreateGroupRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	// In-person groups need a real meeting place
	if request.MeetingMode != models.MeetOnline && request.Venue == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Venue is required for in-person groups"})
		return
	}

	venue := models.Venue{}
	if request.Venue != nil {
		venue = *request.Venue
		if services.MapsConfigured() {
			location, err := services.ValidateLocation(venue.PlaceID)
			if err != nil {
				handleError(c, http.StatusBadRequest, "Failed to validate venue", err)
				return
			}
			venue = location.ToVenue()
		}
	}

	group := models.StudyGroup{
		ID:          generateGroupID(request.Name),
		Name:        request.Name,
		Subject:     request.Subject,
		StudyLevel:  request.StudyLevel,
		MeetingMode: request.MeetingMode,
		Venue:       venue,
		MaxMembers:  request.MaxMembers,
		Description: request.Description,
		OrganiserID: organiser,
	}

	db := database.GetDB()
	if err := db.Create(&group).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create group", err)
		return
	}

	member := models.GroupMember{
		GroupID:   group.ID,
		Username:  organiser,
		Status:    models.MemberApproved,
		Role:      "organiser",
		JoinedAt:  time.Now(),
		CreatedAt: time.Now(),
	}
	if err := db.Create(&member).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to add organiser as member", err)
		return
	}

	LogActivity(organiser, "create_group", group.ID)

	c.JSON(http.StatusCreated, group)
}

// GetGroups handles listing groups with filtering, sorting, and pagination
func GetGroups(c *gin.Context) {
	db := database.GetDB()
	var groups []models.StudyGroup

	query := db.Preload("Members")

	if subject := c.Query("subject"); subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if level := c.Query("study_level"); level != "" {
		query = query.Where("study_level = ?", level)
	}
	if mode := c.Query("meeting_mode"); mode != "" {
		query = query.Where("meeting_mode = ?", mode)
	}
	if organiser := c.Query("organiser"); organiser != "" {
		query = query.Where("organiser_id = ?", organiser)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR subject LIKE ? OR description LIKE ?",
			pattern, pattern, pattern)
	}

	// Sorting over a fixed column list; anything else falls back to newest first
	sortBy := c.DefaultQuery("sort_by", "created_at")
	switch sortBy {
	case "created_at", "name", "subject", "max_members":
	default:
		sortBy = "created_at"
	}
	sortOrder := c.DefaultQuery("sort_order", "desc")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	limit, offset := pagination(c, 10, 100)
	query = query.Limit(limit).Offset(offset)

	if err := query.Find(&groups).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch groups", err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

// pagination reads limit/offset query params with bounds
func pagination(c *gin.Context, defaultLimit, maxLimit int) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// MyGroups lists the groups the caller organises or has joined
func MyGroups(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()
	var memberships []models.GroupMember
	if err := db.Where("username = ? AND status IN ?",
		username, []string{models.MemberApproved, models.MemberPending}).
		Find(&memberships).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch memberships", err)
		return
	}

	groupIDs := make([]string, 0, len(memberships))
	statusByGroup := make(map[string]string, len(memberships))
	for _, m := range memberships {
		groupIDs = append(groupIDs, m.GroupID)
		statusByGroup[m.GroupID] = m.Status
	}

	var groups []models.StudyGroup
	if len(groupIDs) > 0 {
		if err := db.Preload("Members").Where("id IN ?", groupIDs).Find(&groups).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to fetch groups", err)
			return
		}
	}

	result := make([]gin.H, 0, len(groups))
	for i := range groups {
		result = append(result, gin.H{
			"group":             groups[i],
			"membership_status": statusByGroup[groups[i].ID],
		})
	}
	c.JSON(http.StatusOK, result)
}

// GetGroupByID handles fetching a single group's details by ID
func GetGroupByID(c *gin.Context) {
	groupID := c.Param("group_id")
	db := database.GetDB()

	var group models.StudyGroup
	if err := db.Preload("Members").Where("id = ?", groupID).First(&group).Error; err != nil {
		handleError(c, http.StatusNotFound, "Group not found", err)
		return
	}

	var organiser models.Account
	if err := db.Where("username = ?", group.OrganiserID).First(&organiser).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch organiser info", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"group": group,
		"organiser": gin.H{
			"username":   organiser.Username,
			"full_name":  organiser.FullName,
			"avatar_url": organiser.AvatarURL,
			"bio":        organiser.Bio,
		},
	})
}

// JoinGroup handles a user's request to join a study group
func JoinGroup(c *gin.Context) {
	groupID := c.Param("group_id")
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()

	var group models.StudyGroup
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		handleError(c, http.StatusNotFound, "Group not found", err)
		return
	}

	var member models.GroupMember
	err := db.Where("group_id = ? AND username = ?", groupID, username).First(&member).Error
	if err == nil {
		switch member.Status {
		case models.MemberApproved:
			c.JSON(http.StatusConflict, gin.H{"error": "Already a member"})
			return
		case models.MemberPending:
			c.JSON(http.StatusConflict, gin.H{"error": "Join request already pending"})
			return
		case models.MemberRejected:
			member.Status = models.MemberPending
			member.JoinedAt = time.Now()
			if err := db.Save(&member).Error; err != nil {
				handleError(c, http.StatusInternalServerError, "Failed to re-request to join group", err)
				return
			}
			LogActivity(username, "join_group_request", groupID)
			notifyJoinRequest(group, username)
			c.JSON(http.StatusCreated, gin.H{"message": "Join request re-submitted"})
			return
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		handleError(c, http.StatusInternalServerError, "Failed to check group membership", err)
		return
	}

	var approvedCount int64
	db.Model(&models.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, models.MemberApproved).
		Count(&approvedCount)
	if int(approvedCount) >= group.MaxMembers {
		c.JSON(http.StatusForbidden, gin.H{"error": "Group is full"})
		return
	}

	newMember := models.GroupMember{
		GroupID:   groupID,
		Username:  username,
		Status:    models.MemberPending,
		Role:      "member",
		JoinedAt:  time.Now(),
		CreatedAt: time.Now(),
	}
	if err := db.Create(&newMember).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to request to join group", err)
		return
	}

	LogActivity(username, "join_group_request", groupID)
	notifyJoinRequest(group, username)

	c.JSON(http.StatusCreated, gin.H{"message": "Join request submitted"})
}

func notifyJoinRequest(group models.StudyGroup, requester string) {
	createNotification(group.OrganiserID, models.NotifJoinRequest,
		"New join request",
		fmt.Sprintf("%s requested to join your study group '%s'", requester, group.Name),
		group.ID, models.RelatedStudyGroup)
}

// LeaveGroup handles a user's request to leave a group
func LeaveGroup(c *gin.Context) {
	groupID := c.Param("group_id")
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()

	var group models.StudyGroup
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		handleError(c, http.StatusNotFound, "Group not found", err)
		return
	}

	if group.OrganiserID == username {
		c.JSON(http.StatusForbidden, gin.H{"error": "Organiser cannot leave their own group"})
		return
	}

	var member models.GroupMember
	if err := db.Where("group_id = ? AND username = ?", groupID, username).First(&member).Error; err != nil {
		handleError(c, http.StatusNotFound, "Not a group member", err)
		return
	}

	if member.Status != models.MemberApproved && member.Status != models.MemberPending {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot leave group with current status"})
		return
	}

	if err := db.Delete(&member).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to leave group", err)
		return
	}

	LogActivity(username, "leave_group", groupID)

	c.JSON(http.StatusOK, gin.H{"message": "Left group successfully"})
}

// ListPendingMembers returns all pending join requests for a group (organiser only)
func ListPendingMembers(c *gin.Context) {
	groupID := c.Param("group_id")
	requester, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()
	var group models.StudyGroup
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		handleError(c, http.StatusNotFound, "Group not found", err)
		return
	}

	if group.OrganiserID != requester {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the organiser can view pending members"})
		return
	}

	var pendingMembers []models.GroupMember
	if err := db.Where("group_id = ? AND status = ?", groupID, models.MemberPending).
		Find(&pendingMembers).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch pending members", err)
		return
	}

	c.JSON(http.StatusOK, pendingMembers)
}

// ApproveJoinRequest allows the organiser to approve a pending join request
func ApproveJoinRequest(c *gin.Context) {
	groupID := c.Param("group_id")
	username := c.Param("username")
	requester, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()
	var group models.StudyGroup
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		handleError(c, http.StatusNotFound, "Group not found", err)
		return
	}

	if group.OrganiserID != requester {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the organiser can approve members"})
		return
	}

	var member models.GroupMember
	if err := db.Where("group_id = ? AND username = ? AND status = ?",
		groupID, username, models.MemberPending).First(&member).Error; err != nil {
		handleError(c, http.StatusNotFound, "Pending join request not found", err)
		return
	}

	var approvedCount int64
	db.Model(&models.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, models.MemberApproved).
		Count(&approvedCount)
	if int(approvedCount) >= group.MaxMembers {
		c.JSON(http.StatusForbidden, gin.H{"error": "Group is full"})
		return
	}

	if err := db.Model(&member).Update("status", models.MemberApproved).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to approve member", err)
		return
	}

	LogActivity(username, "join_group_approved", groupID)
	createNotification(username, models.NotifJoinApproved,
		"Join request approved",
		fmt.Sprintf("Your request to join '%s' was approved", group.Name),
		groupID, models.RelatedStudyGroup)

	c.JSON(http.StatusOK, gin.H{"message": "Member approved"})
}

// RejectJoinRequest allows the organiser to reject a pending join request
func RejectJoinRequest(c *gin.Context) {
	groupID := c.Param("group_id")
	username := c.Param("username")
	requester, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()
	var group models.StudyGroup
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		handleError(c, http.StatusNotFound, "Group not found", err)
		return
	}

	if group.OrganiserID != requester {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the organiser can reject members"})
		return
	}

	var member models.GroupMember
	if err := db.Where("group_id = ? AND username = ? AND status = ?",
		groupID, username, models.MemberPending).First(&member).Error; err != nil {
		handleError(c, http.StatusNotFound, "Pending join request not found", err)
		return
	}

	if err := db.Model(&member).Update("status", models.MemberRejected).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to reject member", err)
		return
	}

	LogActivity(username, "join_group_rejected", groupID)
	createNotification(username, models.NotifJoinRejected,
		"Join request declined",
		fmt.Sprintf("Your request to join '%s' was declined", group.Name),
		groupID, models.RelatedStudyGroup)

	c.JSON(http.StatusOK, gin.H{"message": "Member rejected"})
}
