package content

import "strings"

// DefaultResults is the generic results copy used when the results post is unavailable.
func DefaultResults() *Results {
	return &Results{
		Headline:    "Your Estimate Results",
		Description: "Thank you for using our estimate calculator. Your results have been calculated based on the information provided.",
		FooterText:  "For a more detailed estimate, please contact our team.",
		Disclaimer:  "This estimate is preliminary and may vary based on specific project requirements and market conditions.",
		Fallback:    true,
	}
}

// DefaultEmailTemplate is the generic template used when the email post is unavailable.
func DefaultEmailTemplate() *EmailTemplate {
	return &EmailTemplate{
		Subject:  defaultEmailSubject,
		HTMLBody: "<p>Thank you for using our estimate calculator. Your results are ready!</p>",
		TextBody: "Thank you for using our estimate calculator. Your results are ready!",
		Fallback: true,
	}
}

const (
	defaultEmailSubject = "Your Estimate Results"
	defaultHomeHelpText = "Select a category below to get started with your construction estimate"
)

// categoryDetail is the detail paragraph shown for a category whose post has
// no long description, keyed by lower-cased title.
var categoryDetail = map[string]string{
	"kitchens":         "Transform your kitchen with our comprehensive renovation estimates. We cover everything from cabinet installation and countertops to appliances, lighting, plumbing, and electrical work. Our detailed estimates include material costs, labor, permits, and timeline projections for your dream kitchen.",
	"bathrooms":        "Upgrade your bathroom with professional renovation estimates. From small powder rooms to luxury master suites, we provide detailed cost breakdowns for fixtures, tile work, plumbing, electrical, ventilation, and all finishing touches to create your perfect bathroom space.",
	"basements":        "Maximize your home's potential with basement finishing estimates. We cover waterproofing, insulation, framing, drywall, flooring, electrical, plumbing, and HVAC systems to transform your basement into valuable living space.",
	"windows":          "Improve your home's energy efficiency and curb appeal with new windows. Our estimates cover window selection, removal of old windows, installation of energy-efficient replacements, trim work, and weatherproofing.",
	"flooring":         "Update your home with beautiful new flooring. We provide estimates for hardwood, laminate, tile, carpet, luxury vinyl, and more. Our comprehensive quotes include material costs, subfloor preparation, installation, and finishing touches.",
	"home renovations": "Transform your entire home with comprehensive renovation estimates. From room additions and open floor plans to whole-house updates, we provide detailed project management and phased construction timelines.",
	"structural":       "Ensure your home's structural integrity with professional estimates for foundation work, beam installation, wall removal, structural repairs, and load-bearing modifications. Our estimates include engineering consultations and permits.",
}

func detailContent(title, longDescription string) string {
	if strings.TrimSpace(longDescription) != "" {
		return longDescription
	}
	if text, ok := categoryDetail[strings.ToLower(title)]; ok {
		return text
	}
	return "Professional " + strings.ToLower(title) + " estimates tailored to your project needs."
}

func categoryDescription(title, longDescription string) string {
	if longDescription != "" {
		return longDescription
	}
	return "Professional " + strings.ToLower(title) + " estimates"
}
