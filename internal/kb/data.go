package kb

const workflowGuide = `# Terraform GCP Development Workflow

A security-first workflow for building and deploying Terraform configurations
on Google Cloud Platform.

## 1. Discover modules

Search the public registry for existing modules before writing resources from
scratch. Prefer verified modules from the terraform-google-modules namespace.

## 2. Analyze before use

Fetch and analyze any third-party module before adopting it: review its
declared inputs and outputs, the resources it manages, and its security scan
results. Do not trust a module solely because it is popular.

## 3. Scan early and often

Run a security scan against your working directory after every meaningful
change, not only before release. Findings caught while the configuration is
small are cheap to fix.

## 4. Remediate, then re-scan

Apply fixes for the findings that have well-known remediations (uniform
bucket-level access, public access prevention, versioning, flow logs,
restricted firewall sources, deletion protection). Re-scan afterwards to
confirm the fixes took and introduced nothing new.

## 5. Validate

Run terraform validate (with formatting normalized first) to confirm the
configuration is still syntactically and semantically coherent after edits.

## 6. Plan and review

Generate a saved plan file and review the proposed changes. Never apply
without a reviewed plan.

## 7. Apply the plan

Apply exactly the saved plan that was reviewed. Re-plan if the configuration
changed in between.

## 8. Destroy deliberately

Destroy is irreversible for most resources. Confirm the target workspace and
state before running it.
`

var practices = []Practice{
	{
		Category:    "networking",
		Title:       "Enable VPC Flow Logs",
		Description: "Enable flow logs on every subnetwork so that network traffic can be audited and anomalous flows investigated.",
		Example: `
resource "google_compute_subnetwork" "subnet" {
  name          = "subnet"
  ip_cidr_range = "10.0.0.0/24"
  network       = google_compute_network.vpc.id

  log_config {
    aggregation_interval = "INTERVAL_5_SEC"
    flow_sampling        = 0.5
    metadata             = "INCLUDE_ALL_METADATA"
  }
}`,
		DocURL: "https://cloud.google.com/vpc/docs/flow-logs",
	},
	{
		Category:    "networking",
		Title:       "Protect external services with Cloud Armor",
		Description: "Attach Cloud Armor security policies to externally exposed load balancers to filter hostile traffic before it reaches backends.",
		Example: `
resource "google_compute_security_policy" "policy" {
  name = "edge-policy"

  rule {
    action   = "deny(403)"
    priority = 1000
    match {
      versioned_expr = "SRC_IPS_V1"
      config {
        src_ip_ranges = ["9.9.9.0/24"]
      }
    }
  }
}`,
		DocURL: "https://cloud.google.com/armor/docs",
	},
	{
		Category:    "iam",
		Title:       "Prefer custom roles over primitive roles",
		Description: "Grant least privilege through custom IAM roles instead of the primitive owner/editor/viewer roles.",
		Example: `
resource "google_project_iam_custom_role" "deployer" {
  role_id     = "appDeployer"
  title       = "Application Deployer"
  permissions = ["run.services.create", "run.services.update"]
}`,
		DocURL: "https://cloud.google.com/iam/docs/creating-custom-roles",
	},
	{
		Category:    "iam",
		Title:       "Require OS Login on compute instances",
		Description: "Enable OS Login at the project or instance level so SSH access is tied to IAM identities instead of long-lived instance keys.",
		Example: `
resource "google_compute_project_metadata_item" "os_login" {
  key   = "enable-oslogin"
  value = "TRUE"
}`,
		DocURL: "https://cloud.google.com/compute/docs/oslogin",
	},
	{
		Category:    "storage",
		Title:       "Enable object versioning on buckets",
		Description: "Versioning protects bucket contents against accidental overwrite and deletion, and supports point-in-time recovery.",
		Example: `
resource "google_storage_bucket" "data" {
  name     = "org-data"
  location = "US"

  versioning {
    enabled = true
  }
}`,
		DocURL: "https://cloud.google.com/storage/docs/object-versioning",
	},
	{
		Category:    "storage",
		Title:       "Encrypt with customer-managed keys",
		Description: "Use CMEK for buckets and disks that hold sensitive data so key rotation and revocation stay under your control.",
		Example: `
resource "google_storage_bucket" "secure" {
  name     = "org-secure-data"
  location = "US"

  encryption {
    default_kms_key_name = google_kms_crypto_key.bucket_key.id
  }
}`,
		DocURL: "https://cloud.google.com/storage/docs/encryption/customer-managed-keys",
	},
	{
		Category:    "compute",
		Title:       "Run Shielded VMs",
		Description: "Enable secure boot, vTPM, and integrity monitoring to defend instances against boot- and kernel-level compromise.",
		Example: `
resource "google_compute_instance" "vm" {
  name         = "hardened-vm"
  machine_type = "e2-medium"

  shielded_instance_config {
    enable_secure_boot          = true
    enable_vtpm                 = true
    enable_integrity_monitoring = true
  }
}`,
		DocURL: "https://cloud.google.com/security/shielded-cloud/shielded-vm",
	},
	{
		Category:    "governance",
		Title:       "Establish VPC Service Controls",
		Description: "Place sensitive services behind a service perimeter to mitigate data exfiltration even when credentials are compromised.",
		DocURL:      "https://cloud.google.com/vpc-service-controls/docs",
	},
	{
		Category:    "governance",
		Title:       "Enable organization-wide audit logging",
		Description: "Capture admin activity and data access logs for every service at the organization level, and route them to a locked-down sink.",
		Example: `
resource "google_organization_iam_audit_config" "all" {
  org_id  = var.org_id
  service = "allServices"

  audit_log_config {
    log_type = "ADMIN_READ"
  }
  audit_log_config {
    log_type = "DATA_WRITE"
  }
}`,
		DocURL: "https://cloud.google.com/logging/docs/audit",
	},
	{
		Category:    "governance",
		Title:       "Enforce Binary Authorization on GKE",
		Description: "Require attestation for container images deployed to GKE so only verified builds reach production clusters.",
		DocURL:      "https://cloud.google.com/binary-authorization/docs",
	},
}

var recommendations = []Recommendation{
	{
		ID:          "SR-001",
		Title:       "Enforce uniform bucket-level access",
		Impact:      "HIGH",
		Description: "Per-object ACLs make it easy to expose individual objects publicly by accident. Uniform bucket-level access makes IAM the single source of truth for bucket permissions.",
		Example: `
resource "google_storage_bucket" "bucket" {
  name                        = "org-bucket"
  location                    = "US"
  uniform_bucket_level_access = true
}`,
		Remediation: "Set uniform_bucket_level_access = true on every google_storage_bucket resource.",
		Compliance:  []string{"CIS GCP 5.2", "NIST 800-53 AC-3", "PCI DSS 7.1"},
	},
	{
		ID:          "SR-002",
		Title:       "Enforce public access prevention on buckets",
		Impact:      "HIGH",
		Description: "Buckets without public access prevention can be made world-readable by a single misconfigured IAM binding.",
		Example: `
resource "google_storage_bucket" "bucket" {
  name                     = "org-bucket"
  location                 = "US"
  public_access_prevention = "enforced"
}`,
		Remediation: "Set public_access_prevention = \"enforced\" on every google_storage_bucket resource.",
		Compliance:  []string{"CIS GCP 5.1", "NIST 800-53 AC-3"},
	},
	{
		ID:          "SR-003",
		Title:       "Restrict firewall source ranges",
		Impact:      "HIGH",
		Description: "Firewall rules with source_ranges of 0.0.0.0/0 expose services to the entire internet. Administrative ports (22, 3389) must never be open to the world.",
		Example: `
resource "google_compute_firewall" "ssh" {
  name    = "allow-ssh"
  network = google_compute_network.vpc.name

  allow {
    protocol = "tcp"
    ports    = ["22"]
  }

  source_ranges = ["10.0.0.0/8"]
}`,
		Remediation: "Replace 0.0.0.0/0 with the narrowest CIDR ranges that still serve legitimate clients, or use IAP for administrative access.",
		Compliance:  []string{"CIS GCP 3.6", "CIS GCP 3.7", "NIST 800-53 SC-7"},
	},
	{
		ID:          "SR-004",
		Title:       "Enable deletion protection on SQL instances",
		Impact:      "MEDIUM",
		Description: "Database instances without deletion protection can be destroyed by a single terraform destroy or console action, with no recovery path once backups age out.",
		Example: `
resource "google_sql_database_instance" "db" {
  name                = "primary"
  database_version    = "POSTGRES_15"
  deletion_protection = true
}`,
		Remediation: "Set deletion_protection = true on every google_sql_database_instance resource.",
		Compliance:  []string{"NIST 800-53 CP-9"},
	},
	{
		ID:          "SR-005",
		Title:       "Enable bucket access logging",
		Impact:      "MEDIUM",
		Description: "Without access logs there is no record of who read or modified bucket contents, which blocks incident investigation.",
		Example: `
resource "google_storage_bucket" "bucket" {
  name     = "org-bucket"
  location = "US"

  logging {
    log_bucket = google_storage_bucket.audit.name
  }
}`,
		Remediation: "Add a logging block pointing at a dedicated, locked-down audit bucket.",
		Compliance:  []string{"CIS GCP 5.3", "NIST 800-53 AU-2"},
	},
	{
		ID:          "SR-006",
		Title:       "Avoid default service accounts on instances",
		Impact:      "MEDIUM",
		Description: "The Compute Engine default service account carries broad project-level permissions. Instances compromised while running as it inherit that reach.",
		Example: `
resource "google_compute_instance" "vm" {
  name         = "app-vm"
  machine_type = "e2-medium"

  service_account {
    email  = google_service_account.app.email
    scopes = ["cloud-platform"]
  }
}`,
		Remediation: "Create a dedicated service account per workload with a least-privilege custom role.",
		Compliance:  []string{"CIS GCP 4.1", "NIST 800-53 AC-6"},
	},
	{
		ID:          "SR-007",
		Title:       "Rotate service account keys",
		Impact:      "LOW",
		Description: "Long-lived exported service account keys accumulate exposure risk. Prefer workload identity; where keys are unavoidable, rotate them on a fixed schedule.",
		Remediation: "Use workload identity federation instead of exported keys, or enforce rotation with key age constraints.",
		Compliance:  []string{"CIS GCP 4.7", "NIST 800-53 IA-5"},
	},
}

var resourceDocs = []ResourceDoc{
	{Name: "google_compute_instance", Service: "compute", Description: "Virtual machine instance with configurable machine type, disks, network interfaces, and shielded VM options."},
	{Name: "google_compute_network", Service: "compute", Description: "VPC network; set auto_create_subnetworks = false for custom-mode subnets."},
	{Name: "google_compute_subnetwork", Service: "compute", Description: "Subnetwork within a VPC, including secondary ranges and flow log configuration."},
	{Name: "google_compute_firewall", Service: "compute", Description: "Firewall rule controlling ingress or egress traffic on a network."},
	{Name: "google_compute_instance_template", Service: "compute", Description: "Reusable instance configuration for managed instance groups."},
	{Name: "google_storage_bucket", Service: "storage", Description: "Cloud Storage bucket with versioning, lifecycle rules, uniform access, and encryption settings."},
	{Name: "google_storage_bucket_iam_member", Service: "storage", Description: "IAM binding granting a single member a role on a bucket."},
	{Name: "google_container_cluster", Service: "container", Description: "GKE cluster; supports private clusters, workload identity, and binary authorization."},
	{Name: "google_container_node_pool", Service: "container", Description: "Node pool attached to a GKE cluster with autoscaling and upgrade settings."},
	{Name: "google_sql_database_instance", Service: "sql", Description: "Cloud SQL instance for MySQL, PostgreSQL, or SQL Server, with backup and deletion protection settings."},
	{Name: "google_sql_database", Service: "sql", Description: "Database within a Cloud SQL instance."},
	{Name: "google_service_account", Service: "iam", Description: "Service account identity for workloads."},
	{Name: "google_project_iam_member", Service: "iam", Description: "Project-level IAM binding for a single member."},
	{Name: "google_project_iam_custom_role", Service: "iam", Description: "Custom IAM role with an explicit permission list."},
	{Name: "google_kms_key_ring", Service: "kms", Description: "Key ring grouping crypto keys in a location."},
	{Name: "google_kms_crypto_key", Service: "kms", Description: "KMS key with rotation period, used for CMEK encryption."},
	{Name: "google_pubsub_topic", Service: "pubsub", Description: "Pub/Sub topic with optional CMEK and message retention."},
	{Name: "google_bigquery_dataset", Service: "bigquery", Description: "BigQuery dataset with access controls and default table expiration."},
}

var genaiModules = []GenAIModule{
	{
		Name:        "vertex_ai",
		Title:       "Vertex AI Platform",
		Description: "Provisions a Vertex AI environment: workbench instances, model endpoints, and the service accounts and APIs they require.",
		Capabilities: []string{
			"Managed notebook / workbench instances",
			"Model endpoint deployment with autoscaling",
			"Dedicated least-privilege service accounts",
			"Required API enablement",
		},
		Repository: "https://github.com/terraform-google-modules/terraform-google-vertex-ai",
	},
	{
		Name:        "gke_ai",
		Title:       "GKE for AI Workloads",
		Description: "GKE cluster tuned for ML training and inference: GPU node pools, workload identity, and cluster autoscaling.",
		Capabilities: []string{
			"GPU and TPU node pools with taints",
			"Workload identity for pod-level IAM",
			"Cluster autoscaler profiles for batch training",
		},
		Repository: "https://github.com/terraform-google-modules/terraform-google-kubernetes-engine",
	},
	{
		Name:        "bigquery_ml",
		Title:       "BigQuery ML",
		Description: "Datasets and IAM scoped for in-warehouse model training with BigQuery ML.",
		Capabilities: []string{
			"Dataset with CMEK encryption",
			"Scoped IAM for model creation",
		},
		Repository: "https://github.com/terraform-google-modules/terraform-google-bigquery",
	},
	{
		Name:        "vector_search",
		Title:       "Vertex AI Vector Search",
		Description: "Vector index and index endpoint for retrieval-augmented generation workloads.",
		Capabilities: []string{
			"Vector index with configurable dimensions",
			"Index endpoint with private service connect",
		},
		Repository: "https://github.com/terraform-google-modules/terraform-google-vertex-ai",
	},
}

var moduleTemplates = map[string]string{
	"vertex_ai": `# Vertex AI Module

` + "```terraform" + `
module "vertex_ai" {
  source  = "terraform-google-modules/vertex-ai/google"
  version = "~> 0.1"

  project_id = var.project_id
  region     = var.region

  workbench_instances = {
    research = {
      machine_type = "n1-standard-4"
      gpu_type     = "NVIDIA_TESLA_T4"
      gpu_count    = 1
    }
  }
}
` + "```" + `

Enable the aiplatform.googleapis.com and notebooks.googleapis.com APIs before
applying. Workbench instances run under a dedicated service account created by
the module; grant it storage access only to the buckets it needs.
`,
	"gke_ai": `# GKE AI Module

` + "```terraform" + `
module "gke_ai" {
  source  = "terraform-google-modules/kubernetes-engine/google"
  version = "~> 30.0"

  project_id        = var.project_id
  name              = "ml-cluster"
  region            = var.region
  network           = var.network
  subnetwork        = var.subnetwork
  ip_range_pods     = "pods"
  ip_range_services = "services"

  node_pools = [
    {
      name               = "gpu-pool"
      machine_type       = "n1-standard-8"
      accelerator_type   = "nvidia-tesla-t4"
      accelerator_count  = 1
      min_count          = 0
      max_count          = 4
      auto_upgrade       = true
    },
  ]
}
` + "```" + `

GPU node pools scale from zero so idle training capacity costs nothing. Pods
requesting GPUs must tolerate the nvidia.com/gpu taint the pool applies.
`,
}
