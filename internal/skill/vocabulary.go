package skill

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func names(ns ...string) []Term {
	out := make([]Term, 0, len(ns))
	for _, n := range ns {
		out = append(out, Term{Name: n})
	}
	return out
}

func defaultTerms() []Term {
	var t []Term

	// languages
	t = append(t, names("JavaScript", "TypeScript", "Python", "Java", "C++", "C#", "Go", "Golang",
		"Rust", "Ruby", "PHP", "Swift", "Kotlin", "Scala", "R", "MATLAB", "Perl")...)

	// frontend
	t = append(t, names("React", "React.js", "ReactJS", "Vue", "Vue.js", "VueJS", "Angular",
		"Svelte", "Next.js", "NextJS", "Nuxt", "Gatsby", "Redux", "MobX")...)
	t = append(t, Term{Name: "HTML", Pattern: `HTML5?`}, Term{Name: "CSS", Pattern: `CSS3?`})
	t = append(t, names("Sass", "SCSS", "Less", "Tailwind", "Bootstrap",
		"Material UI", "Chakra UI", "jQuery", "Webpack", "Vite", "Babel")...)

	// backend
	t = append(t, names("Node.js", "NodeJS", "Express", "Express.js", "Fastify", "NestJS",
		"Django", "Flask", "FastAPI", "Spring", "Spring Boot", "Laravel",
		"Ruby on Rails", "Rails", "ASP.NET", ".NET")...)

	// databases
	t = append(t, names("SQL", "PostgreSQL", "MySQL", "SQLite", "Oracle", "SQL Server",
		"MongoDB", "Redis", "Elasticsearch", "Cassandra", "DynamoDB",
		"Firebase", "Supabase", "Prisma", "Sequelize", "TypeORM")...)

	// cloud and devops
	t = append(t, names("AWS", "Amazon Web Services", "Azure", "GCP", "Google Cloud",
		"Docker", "Kubernetes", "K8s", "Terraform", "Ansible", "Jenkins",
		"CI/CD", "GitHub Actions", "GitLab CI", "CircleCI", "Travis CI",
		"Nginx", "Apache", "Linux", "Unix", "Bash", "Shell")...)

	// apis
	t = append(t, names("REST", "RESTful", "GraphQL", "gRPC", "WebSocket", "OAuth",
		"JWT", "API", "Microservices")...)

	// testing
	t = append(t, names("Jest", "Mocha", "Chai", "Cypress", "Playwright", "Selenium",
		"Pytest", "JUnit", "TestNG", "TDD", "BDD", "Unit Testing")...)

	// data and ml
	t = append(t, names("Machine Learning", "ML", "Deep Learning", "AI", "Artificial Intelligence",
		"TensorFlow", "PyTorch", "Keras", "Scikit-learn", "Pandas", "NumPy",
		"Data Science", "Data Engineering", "ETL", "Spark", "Hadoop")...)

	// mobile
	t = append(t, names("React Native", "Flutter", "iOS", "Android", "Mobile Development")...)

	// tools and practices
	t = append(t, names("Git", "GitHub", "GitLab", "Bitbucket", "Jira", "Confluence",
		"Agile", "Scrum", "Kanban", "Figma", "Sketch", "Adobe XD")...)

	return t
}

func defaultAliases() map[string]string {
	return map[string]string{
		"react.js":            "React",
		"reactjs":             "React",
		"vue.js":              "Vue",
		"vuejs":               "Vue",
		"node.js":             "Node.js",
		"nodejs":              "Node.js",
		"express.js":          "Express",
		"next.js":             "Next.js",
		"nextjs":              "Next.js",
		"c++":                 "C++",
		"c#":                  "C#",
		"golang":              "Go",
		"k8s":                 "Kubernetes",
		"amazon web services": "AWS",
		"google cloud":        "GCP",
		"restful":             "REST",
		"html5":               "HTML",
		"css3":                "CSS",

		"artificial intelligence": "AI",
	}
}

// Default is the canonical vocabulary with the default cap of 15.
func Default(opts ...Option) *Extractor {
	return New(defaultTerms(), defaultAliases(), DefaultMax, opts...)
}

// File is the on-disk vocabulary shape.
type File struct {
	Max     int               `yaml:"max"`
	Terms   []Term            `yaml:"terms"`
	Aliases map[string]string `yaml:"aliases"`
}

// LoadFile builds an extractor from a YAML vocabulary. A file without
// terms or aliases inherits the defaults for that part.
func LoadFile(path string, logger *zap.Logger) (*Extractor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skills file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse skills file %s: %w", path, err)
	}
	if len(f.Terms) == 0 {
		f.Terms = defaultTerms()
	}
	if f.Aliases == nil {
		f.Aliases = defaultAliases()
	}
	return New(f.Terms, f.Aliases, f.Max, WithLogger(logger)), nil
}
