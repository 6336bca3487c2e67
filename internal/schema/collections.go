package schema

// DefaultDefinitions declares the eighteen fixed collections of the platform.
// The returned map is passed to NewRegistry at construction; tests build
// smaller registries of their own.
func DefaultDefinitions() map[string]Definition {
	return map[string]Definition{
		"users": {
			RequiredFields: []string{"email", "passwordHash", "name"},
			FieldTypes: map[string]FieldType{
				"email":        TypeString,
				"passwordHash": TypeString,
				"name":         TypeString,
				"role":         TypeString,
				"avatarUrl":    TypeString,
				"bio":          TypeString,
				"mfaEnabled":   TypeBoolean,
				"lastLoginAt":  TypeDate,
			},
			Defaults: map[string]any{
				"role":       "student",
				"avatarUrl":  "",
				"bio":        "",
				"mfaEnabled": false,
			},
		},
		"courses": {
			RequiredFields: []string{"title", "code", "instructorId", "category", "level", "credits"},
			FieldTypes: map[string]FieldType{
				"title":             TypeString,
				"code":              TypeString,
				"instructorId":      TypeString,
				"category":          TypeString,
				"level":             TypeString,
				"credits":           TypeNumber,
				"description":       TypeString,
				"status":            TypeString,
				"currentEnrollment": TypeNumber,
				"maxEnrollment":     TypeNumber,
				"rating":            TypeNumber,
				"price":             TypeNumber,
				"currency":          TypeString,
				"tags":              TypeArray,
			},
			Defaults: map[string]any{
				"description":       "",
				"status":            "draft",
				"currentEnrollment": 0,
				"maxEnrollment":     100,
				"rating":            0,
				"price":             0,
				"currency":          "USD",
				"tags":              []any{},
			},
		},
		"lessons": {
			RequiredFields: []string{"courseId", "title", "order"},
			FieldTypes: map[string]FieldType{
				"courseId":    TypeString,
				"title":       TypeString,
				"order":       TypeNumber,
				"content":     TypeString,
				"videoUrl":    TypeString,
				"duration":    TypeNumber,
				"isPublished": TypeBoolean,
			},
			Defaults: map[string]any{
				"content":     "",
				"videoUrl":    "",
				"duration":    0,
				"isPublished": false,
			},
		},
		"assignments": {
			RequiredFields: []string{"courseId", "title", "dueDate"},
			FieldTypes: map[string]FieldType{
				"courseId":    TypeString,
				"title":       TypeString,
				"dueDate":     TypeDate,
				"description": TypeString,
				"maxPoints":   TypeNumber,
				"status":      TypeString,
			},
			Defaults: map[string]any{
				"description": "",
				"maxPoints":   100,
				"status":      "open",
			},
		},
		"submissions": {
			RequiredFields: []string{"assignmentId", "studentId"},
			FieldTypes: map[string]FieldType{
				"assignmentId": TypeString,
				"studentId":    TypeString,
				"content":      TypeString,
				"attachments":  TypeArray,
				"status":       TypeString,
				"grade":        TypeNumber,
				"feedback":     TypeString,
			},
			Defaults: map[string]any{
				"content":     "",
				"attachments": []any{},
				"status":      "submitted",
				"feedback":    "",
			},
		},
		"quizzes": {
			RequiredFields: []string{"courseId", "title", "questions"},
			FieldTypes: map[string]FieldType{
				"courseId":     TypeString,
				"title":        TypeString,
				"questions":    TypeArray,
				"timeLimit":    TypeNumber,
				"passingScore": TypeNumber,
				"isPublished":  TypeBoolean,
			},
			Defaults: map[string]any{
				"timeLimit":    30,
				"passingScore": 60,
				"isPublished":  false,
			},
		},
		"enrollments": {
			RequiredFields: []string{"courseId", "studentId"},
			FieldTypes: map[string]FieldType{
				"courseId":  TypeString,
				"studentId": TypeString,
				"status":    TypeString,
				"progress":  TypeNumber,
			},
			Defaults: map[string]any{
				"status":   "active",
				"progress": 0,
			},
		},
		"discussions": {
			RequiredFields: []string{"courseId", "authorId", "title"},
			FieldTypes: map[string]FieldType{
				"courseId": TypeString,
				"authorId": TypeString,
				"title":    TypeString,
				"body":     TypeString,
				"replies":  TypeArray,
				"isPinned": TypeBoolean,
			},
			Defaults: map[string]any{
				"body":     "",
				"replies":  []any{},
				"isPinned": false,
			},
		},
		"announcements": {
			RequiredFields: []string{"courseId", "authorId", "title", "body"},
			FieldTypes: map[string]FieldType{
				"courseId": TypeString,
				"authorId": TypeString,
				"title":    TypeString,
				"body":     TypeString,
				"priority": TypeString,
			},
			Defaults: map[string]any{
				"priority": "normal",
			},
		},
		"events": {
			RequiredFields: []string{"title", "startsAt"},
			FieldTypes: map[string]FieldType{
				"title":     TypeString,
				"startsAt":  TypeDate,
				"endsAt":    TypeDate,
				"courseId":  TypeString,
				"location":  TypeString,
				"attendees": TypeArray,
			},
			Defaults: map[string]any{
				"location":  "",
				"attendees": []any{},
			},
		},
		"grades": {
			RequiredFields: []string{"courseId", "studentId", "itemId", "score"},
			FieldTypes: map[string]FieldType{
				"courseId":  TypeString,
				"studentId": TypeString,
				"itemId":    TypeString,
				"itemType":  TypeString,
				"score":     TypeNumber,
				"maxScore":  TypeNumber,
				"comment":   TypeString,
			},
			Defaults: map[string]any{
				"itemType": "assignment",
				"maxScore": 100,
				"comment":  "",
			},
		},
		"notifications": {
			RequiredFields: []string{"userId", "title"},
			FieldTypes: map[string]FieldType{
				"userId": TypeString,
				"title":  TypeString,
				"body":   TypeString,
				"kind":   TypeString,
				"isRead": TypeBoolean,
			},
			Defaults: map[string]any{
				"body":   "",
				"kind":   "info",
				"isRead": false,
			},
		},
		"messages": {
			RequiredFields: []string{"senderId", "recipientId", "body"},
			FieldTypes: map[string]FieldType{
				"senderId":    TypeString,
				"recipientId": TypeString,
				"body":        TypeString,
				"isRead":      TypeBoolean,
			},
			Defaults: map[string]any{
				"isRead": false,
			},
		},
		"analytics": {
			RequiredFields: []string{"userId", "eventType"},
			FieldTypes: map[string]FieldType{
				"userId":    TypeString,
				"eventType": TypeString,
				"payload":   TypeObject,
			},
			Defaults: map[string]any{
				"payload": map[string]any{},
			},
		},
		"liveSessions": {
			RequiredFields: []string{"courseId", "hostId", "title", "scheduledAt"},
			FieldTypes: map[string]FieldType{
				"courseId":    TypeString,
				"hostId":      TypeString,
				"title":       TypeString,
				"scheduledAt": TypeDate,
				"joinUrl":     TypeString,
				"status":      TypeString,
			},
			Defaults: map[string]any{
				"joinUrl": "",
				"status":  "scheduled",
			},
		},
		"certificates": {
			RequiredFields: []string{"courseId", "studentId"},
			FieldTypes: map[string]FieldType{
				"courseId":  TypeString,
				"studentId": TypeString,
				"issuedAt":  TypeDate,
				"grade":     TypeString,
			},
			Defaults: map[string]any{
				"grade": "",
			},
		},
		"studyGroups": {
			RequiredFields: []string{"name", "ownerId"},
			FieldTypes: map[string]FieldType{
				"name":       TypeString,
				"ownerId":    TypeString,
				"courseId":   TypeString,
				"memberIds":  TypeArray,
				"maxMembers": TypeNumber,
			},
			Defaults: map[string]any{
				"memberIds":  []any{},
				"maxMembers": 10,
			},
		},
		"aiTutorSessions": {
			RequiredFields: []string{"userId", "topic"},
			FieldTypes: map[string]FieldType{
				"userId":   TypeString,
				"topic":    TypeString,
				"courseId": TypeString,
				"messages": TypeArray,
				"status":   TypeString,
			},
			Defaults: map[string]any{
				"messages": []any{},
				"status":   "active",
			},
		},
	}
}
