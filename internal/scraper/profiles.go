package scraper

import (
	"regexp"

	"job-tracker/internal/extract"
)

var (
	companyLink     = LinkText{Selector: `a[href*="/company/"]`, Attr: "aria-label"}
	naukriCompanyRe = regexp.MustCompile(`(?i)company-([^/?#]+)`)
)

func titleCompany(site string) []Step {
	return []Step{
		JSONLDCompany{},
		TitleAtCompany{},
		TitleSegment{Index: 1, MinSegments: 2, RejectIfContains: []string{site}, RejectHost: true},
		companyLink,
	}
}

func titlePosition(site string) []Step {
	return []Step{
		JSONLDTitle{},
		TitleSegment{Index: 0, MinSegments: 1, RejectIfContains: []string{site}, RejectHost: true},
	}
}

func LinkedIn() Profile {
	return Profile{
		Site:  SiteLinkedIn,
		Hosts: []string{"linkedin.com"},
		Company: Field{
			Locators: []string{
				".job-details-jobs-unified-top-card__company-name a",
				".job-details-jobs-unified-top-card__company-name",
				".jobs-unified-top-card__company-name a",
				".jobs-unified-top-card__company-name",
				".job-details-jobs-unified-top-card__primary-description-container a",
				".job-details-jobs-unified-top-card__primary-description a",
				`a[data-tracking-control-name="public_jobs_topcard-org-name"]`,
				".topcard__org-name-link",
				`.top-card-layout__card a[data-tracking-control-name*="company"]`,
				"span.job-details-jobs-unified-top-card__company-name",
				`[data-test-id="job-details-company-name"]`,
			},
			Fallbacks: []Step{
				JSONLDCompany{},
				TitleAtCompany{},
				TitleSegment{Index: 1, MinSegments: 2, RejectIfContains: []string{"linkedin"}},
				companyLink,
			},
		},
		Position: Field{
			Locators: []string{
				".job-details-jobs-unified-top-card__job-title h1",
				".job-details-jobs-unified-top-card__job-title",
				"h1.job-details-jobs-unified-top-card__job-title",
				".jobs-unified-top-card__job-title h1",
				".jobs-unified-top-card__job-title",
				".top-card-layout__title",
				".topcard__title",
				"h1.t-24",
				"h1.t-18",
				`h1[class*="title"]`,
				"h1",
			},
			Fallbacks: []Step{
				JSONLDTitle{},
				TitleSegment{Index: 0, MinSegments: 1},
			},
		},
		Location: Field{Locators: []string{
			".job-details-jobs-unified-top-card__primary-description-container .tvm__text",
			".job-details-jobs-unified-top-card__bullet",
			".jobs-unified-top-card__bullet",
			".topcard__flavor--bullet",
			".top-card-layout__second-subline span",
			`[class*="location"]`,
		}},
		Description: Field{Locators: []string{
			".jobs-description-content__text",
			".jobs-description__content",
			".jobs-box__html-content",
			"#job-details",
			".description__text",
			".show-more-less-html__markup",
			`[class*="description"]`,
		}},
	}
}

func Naukri() Profile {
	return Profile{
		Site:  SiteNaukri,
		Hosts: []string{"naukri.com"},
		Company: Field{
			Locators: []string{
				"a.comp-name",
				".comp-name",
				"a[data-company-name]",
				"[data-company-name]",
				".jd-header-comp-name a",
				".jd-header-comp-name",
				".company-info .name",
				".company-info a",
				".companyName a",
				".companyName",
				`.naukri-jd-header a[href*="company"]`,
				`a[href*="/company-jobs"]`,
				".cname a",
				".cname",
				".styles_jd-header-comp-name__MvqAI a",
				".styles_jd-header-comp-name__MvqAI",
				`[class*="comp-name"] a`,
				`[class*="comp-name"]`,
				`[class*="companyName"]`,
			},
			Fallbacks: []Step{
				JSONLDCompany{},
				TitleSegment{Index: 1, MinSegments: 2, RejectIfContains: []string{"naukri"}},
				URLPattern{Pattern: naukriCompanyRe},
			},
		},
		Position: Field{
			Locators: []string{
				"h1.jd-header-title",
				".jd-header-title",
				`h1[class*="title"]`,
				".styles_jd-header-title__rZwM1",
				".title",
				".job-title",
				"h1",
				"[data-title]",
			},
			Fallbacks: []Step{
				JSONLDTitle{},
				TitleSegment{Index: 0, MinSegments: 2},
			},
		},
		Location: Field{Locators: []string{
			".location a",
			".location",
			".loc a",
			".loc",
			`[class*="location"]`,
			".jd-location span",
			".jd-location",
		}},
		Salary: Field{Locators: []string{
			".salary",
			".sal",
			`[class*="salary"]`,
			".jd-salary span",
		}},
		Description: Field{Locators: []string{
			".job-desc",
			".jd-desc",
			".styles_JDC__dang-inner-html__h0K4t",
			`[class*="job-desc"]`,
			`[class*="description"]`,
			".dang-inner-html",
		}},
		SkillTags: []string{
			".chip-wrap a",
			".key-skill a",
			`[class*="skill"] a`,
			".chipWrap a",
		},
	}
}

func Indeed() Profile {
	return Profile{
		Site:  SiteIndeed,
		Hosts: []string{"indeed.com"},
		Company: Field{
			Locators: []string{
				`[data-testid="inlineHeader-companyName"] a`,
				`[data-testid="inlineHeader-companyName"]`,
				".jobsearch-InlineCompanyRating-companyHeader a",
				".jobsearch-InlineCompanyRating-companyHeader",
				".icl-u-lg-mr--sm a",
				".icl-u-lg-mr--sm",
				"[data-company-name]",
				".companyName a",
				".companyName",
			},
			Fallbacks: titleCompany("indeed"),
		},
		Position: Field{
			Locators: []string{
				`[data-testid="jobsearch-JobInfoHeader-title"]`,
				".jobsearch-JobInfoHeader-title",
				"h1.jobsearch-JobInfoHeader-title",
				".jobTitle",
				"h1",
			},
			Fallbacks: titlePosition("indeed"),
		},
		Location: Field{Locators: []string{
			`[data-testid="inlineHeader-companyLocation"]`,
			`[data-testid="job-location"]`,
			".jobsearch-JobInfoHeader-subtitle > div:last-child",
			".companyLocation",
		}},
		Salary: Field{Locators: []string{
			`[data-testid="attribute_snippet_testid"]`,
			".jobsearch-JobMetadataHeader-item",
			"#salaryInfoAndJobType",
			".salary-snippet",
		}},
		Description: Field{Locators: []string{
			"#jobDescriptionText",
			".jobsearch-jobDescriptionText",
			`[data-testid="jobDescriptionText"]`,
		}},
	}
}

func Glassdoor() Profile {
	return Profile{
		Site:  SiteGlassdoor,
		Hosts: []string{"glassdoor.com"},
		Company: Field{
			Locators: []string{
				`[data-test="employerName"]`,
				".employer-name",
				".e1tk4kwz4",
				`div[data-test="employer-name"]`,
				".EmployerProfile_employerName__0R1C4",
			},
			Fallbacks: titleCompany("glassdoor"),
		},
		Position: Field{
			Locators: []string{
				`[data-test="jobTitle"]`,
				".job-title",
				`h1[data-test="job-title"]`,
				".JobDetails_jobTitle__Rq2LN",
				"h1",
			},
			Fallbacks: titlePosition("glassdoor"),
		},
		Location: Field{Locators: []string{
			`[data-test="location"]`,
			".location",
			`[data-test="emp-location"]`,
			".JobDetails_location__mSg5h",
		}},
		Salary: Field{Locators: []string{
			`[data-test="detailSalary"]`,
			".salary-estimate",
			".css-1xe2xww",
			".SalaryEstimate_salaryEstimate__Pnjs5",
		}},
		Description: Field{Locators: []string{
			".jobDescriptionContent",
			`[data-test="jobDescriptionContent"]`,
			".desc",
			".JobDetails_jobDescription__uW_fK",
		}},
	}
}

// Generic covers any page without a dedicated profile.
func Generic() Profile {
	return Profile{
		Site: SiteGeneric,
		Company: Field{
			Locators: []string{
				`[class*="company"]`,
				`[class*="employer"]`,
				`[class*="organization"]`,
			},
			Fallbacks: []Step{
				JSONLDCompany{},
				TitleAtCompany{},
				TitleSegment{Index: 1, MinSegments: 2, RejectHost: true},
				companyLink,
			},
		},
		Position: Field{
			Locators: []string{
				"h1",
				`[class*="title"]`,
			},
			Fallbacks: []Step{
				JSONLDTitle{},
				TitleSegment{Index: 0, MinSegments: 1},
			},
		},
		Description: Field{
			Locators: []string{
				`[class*="description"]`,
				`[class*="details"]`,
			},
			Fallbacks: []Step{MainContent{Selector: "main", Limit: extract.MainContentLimit}},
		},
	}
}

// Profiles lists the site profiles in dispatch order. Generic is not part
// of it; it is the fallback.
func Profiles() []Profile {
	return []Profile{LinkedIn(), Naukri(), Indeed(), Glassdoor()}
}
