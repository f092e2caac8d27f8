package bank

import "exam-drill-service/internal/domain"

// DefaultCatalog lists the exams known out of the box.
func DefaultCatalog() []domain.ExamInfo {
	return []domain.ExamInfo{
		{Code: "MLA-C01", Name: "AWS Certified Machine Learning Engineer - Associate", Category: "associate", TimeLimitMinutes: 180, QuestionCount: 65},
		{Code: "SAMPLE", Name: "Sample drill", Description: "Short warm-up set", Category: "practice", TimeLimitMinutes: 30, QuestionCount: 10},
		{Code: "CLF-C02", Name: "AWS Certified Cloud Practitioner", Category: "foundational", TimeLimitMinutes: 90, QuestionCount: 65},
		{Code: "SAA-C03", Name: "AWS Certified Solutions Architect - Associate", Category: "associate", TimeLimitMinutes: 130, QuestionCount: 65},
		{Code: "DVA-C02", Name: "AWS Certified Developer - Associate", Category: "associate", TimeLimitMinutes: 130, QuestionCount: 65},
		{Code: "SOA-C02", Name: "AWS Certified SysOps Administrator - Associate", Category: "associate", TimeLimitMinutes: 130, QuestionCount: 65},
	}
}

// FindExam looks up code in catalog.
func FindExam(catalog []domain.ExamInfo, code string) (domain.ExamInfo, bool) {
	for _, e := range catalog {
		if e.Code == code {
			return e, true
		}
	}
	return domain.ExamInfo{}, false
}
