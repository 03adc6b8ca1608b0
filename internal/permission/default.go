package permission

import "github.com/jobvyne/navguard/internal/usertype"

// Permission names granted by employer permission groups. Keep in sync with
// the backend user model.
const (
	ManageUser             = "Manage users"
	ChangePermissions      = "Change user permissions"
	ManagePermissionGroups = "Manage custom permission groups"
	ManageEmployerContent  = "Manage employer content"
	ManageEmployerJobs     = "Manage employer jobs"
	ManageReferralBonuses  = "Manage employee referral bonuses"
	AddEmployeeContent     = "Add personal employee content"
	ManageBillingSettings  = "Manage billing settings"
	ManageEmployerSettings = "Manage employer settings"
)

// IsEmployer holds when an approved permission group grants the employer role.
var IsEmployer = RoleInGroups{Bit: usertype.Employer}

var employerOrg = OrgType{Type: usertype.OrgEmployer}

// DefaultPages is the built-in page table, grouped by role in role-bit order.
func DefaultPages() []Page {
	return []Page{
		{Key: "admin-dashboard", Label: "Dashboard", Role: usertype.Admin, EmailCheck: EmailPersonal},
		{Key: "admin-employers", Label: "Employers", Role: usertype.Admin, EmailCheck: EmailPersonal},
		{Key: "admin-scrapers", Label: "Job Scrapers", Role: usertype.Admin, EmailCheck: EmailPersonal},
		{Key: "admin-users", Label: "Users", Role: usertype.Admin, EmailCheck: EmailPersonal},

		{Key: "candidate-dashboard", Label: "Dashboard", Role: usertype.Candidate},

		{Key: "employee-dashboard", Label: "Dashboard", Role: usertype.Employee, EmailCheck: EmailEmployer},
		{Key: "employee-jobs", Label: "Jobs", Role: usertype.Employee, EmailCheck: EmailEmployer},
		{Key: "employee-applications", Label: "Job Referrals", Role: usertype.Employee, EmailCheck: EmailEmployer},
		{
			Key:        "employee-profile-page",
			Label:      "Profile Settings",
			Role:       usertype.Employee,
			EmailCheck: EmailEmployer,
			Edit:       HasPermission{Names: []string{AddEmployeeContent}},
		},
		{Key: "employee-social-accounts", Label: "Social Accounts", Role: usertype.Employee},

		{Key: "influencer-dashboard", Label: "Dashboard", Role: usertype.Influencer, EmailCheck: EmailPersonal},
		{Key: "influencer-jobs", Label: "Job boards", Role: usertype.Influencer, EmailCheck: EmailPersonal},

		{Key: "employer-dashboard", Label: "Dashboard", Role: usertype.Employer, EmailCheck: EmailEmployer, Edit: IsEmployer},
		{
			Key:        "employer-jobs",
			Label:      "Jobs",
			Role:       usertype.Employer,
			EmailCheck: EmailEmployer,
			View:       All{IsEmployer, employerOrg},
			Edit:       All{IsEmployer, HasPermission{Names: []string{ManageReferralBonuses}}, employerOrg},
		},
		{
			Key:        "employer-referrals",
			Label:      "Employee Referrals",
			Role:       usertype.Employer,
			EmailCheck: EmailEmployer,
			View:       All{IsEmployer, employerOrg},
			Edit:       All{IsEmployer, HasPermission{Names: []string{ManageReferralBonuses}}, employerOrg},
		},
		{Key: "employer-job-boards", Label: "Job Boards", Role: usertype.Employer, EmailCheck: EmailEmployer, Edit: IsEmployer},
		{Key: "employer-applications", Label: "Job Applications", Role: usertype.Employer, EmailCheck: EmailEmployer, Edit: IsEmployer},
		{
			Key:        "employer-user-management",
			Label:      "Users",
			Role:       usertype.Employer,
			EmailCheck: EmailEmployer,
			View:       IsEmployer,
			Edit:       All{IsEmployer, HasPermission{Names: []string{ManagePermissionGroups, ManageUser}, Any: true}},
		},
		{
			Key:        "employer-settings",
			Label:      "Settings",
			Role:       usertype.Employer,
			EmailCheck: EmailEmployer,
			Edit:       All{IsEmployer, HasPermission{Names: []string{ManageEmployerSettings, ManageBillingSettings}, Any: true}},
		},
	}
}

// DefaultTable returns the built-in page table.
func DefaultTable() *Table {
	t, err := NewTable(DefaultPages())
	if err != nil {
		panic("built-in pages: " + err.Error())
	}
	return t
}
