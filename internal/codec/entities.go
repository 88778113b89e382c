package codec

import (
	"strconv"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// Files encodes the Files sheet.
var Files = newCodec(types.FilesSheet,
	[]string{"file_id", "profile_id", "file_name", "file_type", "drive_file_id", "drive_url", "description", "version_label", "created_at"},
	func(r reader) types.File {
		return types.File{
			FileID:       r.str("file_id"),
			ProfileID:    r.profile(),
			FileName:     r.str("file_name"),
			FileType:     enum[types.FileType](r, "file_type"),
			DriveFileID:  r.str("drive_file_id"),
			DriveURL:     r.str("drive_url"),
			Description:  r.str("description"),
			VersionLabel: r.str("version_label"),
			CreatedAt:    r.str("created_at"),
		}
	},
	func(f types.File, w writer) {
		w["file_id"] = f.FileID
		w["profile_id"] = string(f.ProfileID)
		w["file_name"] = f.FileName
		w["file_type"] = string(f.FileType)
		w["drive_file_id"] = f.DriveFileID
		w["drive_url"] = f.DriveURL
		w["description"] = f.Description
		w["version_label"] = f.VersionLabel
		w["created_at"] = f.CreatedAt
	},
)

// Companies encodes the Companies sheet.
var Companies = newCodec(types.CompaniesSheet,
	[]string{"company_id", "profile_id", "name", "industry", "website", "careers_url", "linkedin_url", "address", "lat", "lng", "distance_km", "travel_time_min", "notes", "created_at"},
	func(r reader) types.Company {
		return types.Company{
			CompanyID:     r.str("company_id"),
			ProfileID:     r.profile(),
			Name:          r.str("name"),
			Industry:      r.str("industry"),
			Website:       r.str("website"),
			CareersURL:    r.str("careers_url"),
			LinkedInURL:   r.str("linkedin_url"),
			Address:       r.str("address"),
			Lat:           r.num("lat"),
			Lng:           r.num("lng"),
			DistanceKm:    r.num("distance_km"),
			TravelTimeMin: r.num("travel_time_min"),
			Notes:         r.str("notes"),
			CreatedAt:     r.str("created_at"),
		}
	},
	func(c types.Company, w writer) {
		w["company_id"] = c.CompanyID
		w["profile_id"] = string(c.ProfileID)
		w["name"] = c.Name
		w["industry"] = c.Industry
		w["website"] = c.Website
		w["careers_url"] = c.CareersURL
		w["linkedin_url"] = c.LinkedInURL
		w["address"] = c.Address
		w.num("lat", c.Lat)
		w.num("lng", c.Lng)
		w.num("distance_km", c.DistanceKm)
		w.num("travel_time_min", c.TravelTimeMin)
		w["notes"] = c.Notes
		w["created_at"] = c.CreatedAt
	},
)

// Recruiters encodes the Recruiters sheet.
var Recruiters = newCodec(types.RecruitersSheet,
	[]string{"recruiter_id", "profile_id", "first_name", "last_name", "email", "phone", "linkedin_url", "company_id", "notes", "created_at"},
	func(r reader) types.Recruiter {
		return types.Recruiter{
			RecruiterID: r.str("recruiter_id"),
			ProfileID:   r.profile(),
			FirstName:   r.str("first_name"),
			LastName:    r.str("last_name"),
			Email:       r.str("email"),
			Phone:       r.str("phone"),
			LinkedInURL: r.str("linkedin_url"),
			CompanyID:   r.str("company_id"),
			Notes:       r.str("notes"),
			CreatedAt:   r.str("created_at"),
		}
	},
	func(rc types.Recruiter, w writer) {
		w["recruiter_id"] = rc.RecruiterID
		w["profile_id"] = string(rc.ProfileID)
		w["first_name"] = rc.FirstName
		w["last_name"] = rc.LastName
		w["email"] = rc.Email
		w["phone"] = rc.Phone
		w["linkedin_url"] = rc.LinkedInURL
		w["company_id"] = rc.CompanyID
		w["notes"] = rc.Notes
		w["created_at"] = rc.CreatedAt
	},
)

// Applications encodes the Applications sheet. The stored hourly_rate cell
// is ignored on decode and recomputed from monthly_salary.
var Applications = newCodec(types.ApplicationsSheet,
	[]string{
		"app_id", "profile_id", "company_id", "position_title", "position_url", "status", "priority",
		"excitement_rating", "monthly_salary", "hourly_rate", "job_offer_file_id", "applied_date",
		"response_date", "role_description", "notes", "created_at", "updated_at",
	},
	func(r reader) types.Application {
		a := types.Application{
			AppID:            r.str("app_id"),
			ProfileID:        r.profile(),
			CompanyID:        r.str("company_id"),
			PositionTitle:    r.str("position_title"),
			PositionURL:      r.str("position_url"),
			Status:           enum[types.ApplicationStatus](r, "status"),
			Priority:         enum[types.Priority](r, "priority"),
			ExcitementRating: r.num("excitement_rating"),
			JobOfferFileID:   r.str("job_offer_file_id"),
			AppliedDate:      r.str("applied_date"),
			ResponseDate:     r.str("response_date"),
			RoleDescription:  r.str("role_description"),
			Notes:            r.str("notes"),
			CreatedAt:        r.str("created_at"),
			UpdatedAt:        r.str("updated_at"),
		}
		a.SetMonthlySalary(r.num("monthly_salary"))
		return a
	},
	func(a types.Application, w writer) {
		w["app_id"] = a.AppID
		w["profile_id"] = string(a.ProfileID)
		w["company_id"] = a.CompanyID
		w["position_title"] = a.PositionTitle
		w["position_url"] = a.PositionURL
		w["status"] = string(a.Status)
		w["priority"] = string(a.Priority)
		w.num("excitement_rating", a.ExcitementRating)
		w.num("monthly_salary", a.MonthlySalary)
		w.num("hourly_rate", types.HourlyRate(a.MonthlySalary))
		w["job_offer_file_id"] = a.JobOfferFileID
		w["applied_date"] = a.AppliedDate
		w["response_date"] = a.ResponseDate
		w["role_description"] = a.RoleDescription
		w["notes"] = a.Notes
		w["created_at"] = a.CreatedAt
		w["updated_at"] = a.UpdatedAt
	},
)

// AppFiles encodes the AppFiles link sheet.
var AppFiles = newCodec(types.AppFilesSheet,
	[]string{"app_id", "file_id", "attached_at"},
	func(r reader) types.AppFile {
		return types.AppFile{
			AppID:      r.str("app_id"),
			FileID:     r.str("file_id"),
			AttachedAt: r.str("attached_at"),
		}
	},
	func(l types.AppFile, w writer) {
		w["app_id"] = l.AppID
		w["file_id"] = l.FileID
		w["attached_at"] = l.AttachedAt
	},
)

// AppRecruiters encodes the AppRecruiters link sheet.
var AppRecruiters = newCodec(types.AppRecruitersSheet,
	[]string{"app_id", "recruiter_id"},
	func(r reader) types.AppRecruiter {
		return types.AppRecruiter{
			AppID:       r.str("app_id"),
			RecruiterID: r.str("recruiter_id"),
		}
	},
	func(l types.AppRecruiter, w writer) {
		w["app_id"] = l.AppID
		w["recruiter_id"] = l.RecruiterID
	},
)

// AppSteps encodes the AppSteps sheet.
var AppSteps = newCodec(types.AppStepsSheet,
	[]string{"step_id", "app_id", "step_type", "step_name", "step_date", "step_time", "step_notes", "google_calendar_event_id", "created_at"},
	func(r reader) types.AppStep {
		return types.AppStep{
			StepID:          r.str("step_id"),
			AppID:           r.str("app_id"),
			StepType:        enum[types.StepType](r, "step_type"),
			StepName:        r.str("step_name"),
			StepDate:        r.str("step_date"),
			StepTime:        r.str("step_time"),
			StepNotes:       r.str("step_notes"),
			CalendarEventID: r.str("google_calendar_event_id"),
			CreatedAt:       r.str("created_at"),
		}
	},
	func(s types.AppStep, w writer) {
		w["step_id"] = s.StepID
		w["app_id"] = s.AppID
		w["step_type"] = string(s.StepType)
		w["step_name"] = s.StepName
		w["step_date"] = s.StepDate
		w["step_time"] = s.StepTime
		w["step_notes"] = s.StepNotes
		w["google_calendar_event_id"] = s.CalendarEventID
		w["created_at"] = s.CreatedAt
	},
)

// CalendarEvents encodes the CalendarEvents sheet.
var CalendarEvents = newCodec(types.CalendarEventsSheet,
	[]string{"event_id", "profile_id", "app_id", "title", "event_date", "event_time", "duration_minutes", "event_type", "google_calendar_event_id", "notes", "created_at"},
	func(r reader) types.CalendarEvent {
		return types.CalendarEvent{
			EventID:         r.str("event_id"),
			ProfileID:       r.profile(),
			AppID:           r.str("app_id"),
			Title:           r.str("title"),
			EventDate:       r.str("event_date"),
			EventTime:       r.str("event_time"),
			DurationMinutes: r.positiveInt("duration_minutes"),
			EventType:       enum[types.EventType](r, "event_type"),
			CalendarEventID: r.str("google_calendar_event_id"),
			Notes:           r.str("notes"),
			CreatedAt:       r.str("created_at"),
		}
	},
	func(e types.CalendarEvent, w writer) {
		w["event_id"] = e.EventID
		w["profile_id"] = string(e.ProfileID)
		w["app_id"] = e.AppID
		w["title"] = e.Title
		w["event_date"] = e.EventDate
		w["event_time"] = e.EventTime
		w["duration_minutes"] = strconv.Itoa(e.DurationMinutes)
		w["event_type"] = string(e.EventType)
		w["google_calendar_event_id"] = e.CalendarEventID
		w["notes"] = e.Notes
		w["created_at"] = e.CreatedAt
	},
)
